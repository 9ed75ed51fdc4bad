package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/newsboy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, tx, "tokenrepo")

	makeToken := func(access, refresh string, expiresIn time.Duration) *types.UserToken {
		return &types.UserToken{
			UserID:       u.ID,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    time.Now().Add(expiresIn),
		}
	}

	live := makeToken("access-1", "refresh-1", time.Hour)
	stale := makeToken("access-2", "refresh-2", -time.Hour)
	if _, err := repo.Create(dbc, []*types.UserToken{live, stale}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByUserIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByAccessTokens(dbc, []string{live.AccessToken}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByAccessTokens: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByRefreshTokens(dbc, []string{live.RefreshToken}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByRefreshTokens: err=%v len=%d", err, len(rows))
	}

	n, err := repo.FullDeleteExpiredByUserIDs(dbc, []uuid.UUID{u.ID}, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("FullDeleteExpiredByUserIDs: want=1 got=%d err=%v", n, err)
	}

	if err := repo.FullDeleteByTokens(dbc, []*types.UserToken{live}); err != nil {
		t.Fatalf("FullDeleteByTokens: %v", err)
	}
	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after delete: err=%v len=%d", err, len(rows))
	}
}
