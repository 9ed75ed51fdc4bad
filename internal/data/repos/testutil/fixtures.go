package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/domain/params"
)

func SeedUser(tb testing.TB, tx *gorm.DB, username string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Password: "pw",
		IsActive: true,
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSource(tb testing.TB, tx *gorm.DB, userID uuid.UUID, name string) *types.Source {
	tb.Helper()
	s := &types.Source{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
		Type:   types.SourceTypeBlog,
		URL:    "https://example.com/" + name,
	}
	s.ApplyDefaults()
	if err := tx.Create(s).Error; err != nil {
		tb.Fatalf("seed source: %v", err)
	}
	return s
}

func SeedTemplate(tb testing.TB, tx *gorm.DB, userID uuid.UUID, p params.Params) *types.SummaryTemplate {
	tb.Helper()
	t := &types.SummaryTemplate{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       "weekly",
		Parameters: datatypes.NewJSONType(p),
	}
	if err := tx.Create(t).Error; err != nil {
		tb.Fatalf("seed template: %v", err)
	}
	return t
}

func SeedSummary(tb testing.TB, tx *gorm.DB, userID uuid.UUID, title string, tags ...string) *types.Summary {
	tb.Helper()
	s := &types.Summary{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Content:   "content of " + title,
		KeyPoints: datatypes.JSONSlice[string]{},
		Tags:      datatypes.JSONSlice[string](tags),
	}
	if err := tx.Create(s).Error; err != nil {
		tb.Fatalf("seed summary: %v", err)
	}
	return s
}
