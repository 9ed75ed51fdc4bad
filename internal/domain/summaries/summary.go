package summaries

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/domain/sources"
)

// JoinTable links summaries to the sources they were derived from.
const JoinTable = "summary_source"

type Summary struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                   `gorm:"type:uuid;index;not null" json:"user_id"`
	Title       string                      `gorm:"not null" json:"title"`
	Content     string                      `gorm:"type:text;not null" json:"content"`
	KeyPoints   datatypes.JSONSlice[string] `gorm:"column:key_points" json:"key_points"`
	Tags        datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	IsArchived  bool                        `gorm:"not null;default:false;index" json:"is_archived"`
	IsImportant bool                        `gorm:"not null;default:false;index" json:"is_important"`
	Sources     []*sources.Source           `gorm:"many2many:summary_source;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Summary) TableName() string { return "summary" }

// SourceIDs returns the ids of the loaded association in load order.
func (s *Summary) SourceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Sources))
	for _, src := range s.Sources {
		if src != nil {
			ids = append(ids, src.ID)
		}
	}
	return ids
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	out := struct {
		alias
		KeyPoints []string    `json:"key_points"`
		Tags      []string    `json:"tags"`
		SourceIDs []uuid.UUID `json:"source_ids"`
	}{
		alias:     alias(s),
		KeyPoints: nonNil(s.KeyPoints),
		Tags:      nonNil(s.Tags),
		SourceIDs: s.SourceIDs(),
	}
	return json.Marshal(out)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
