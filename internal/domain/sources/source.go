package sources

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/domain/params"
	errs "github.com/yungbote/newsboy-backend/internal/pkg/errors"
)

type SourceType string

const (
	SourceTypeGithub    SourceType = "github"
	SourceTypeArxiv     SourceType = "arxiv"
	SourceTypeBlog      SourceType = "blog"
	SourceTypeCommunity SourceType = "community"
	SourceTypeNews      SourceType = "news"
)

func (t SourceType) Valid() bool {
	switch t {
	case SourceTypeGithub, SourceTypeArxiv, SourceTypeBlog, SourceTypeCommunity, SourceTypeNews:
		return true
	}
	return false
}

type UpdateFrequency string

const (
	FrequencyRealtime UpdateFrequency = "realtime"
	FrequencyDaily    UpdateFrequency = "daily"
	FrequencyWeekly   UpdateFrequency = "weekly"
)

func (f UpdateFrequency) Valid() bool {
	return f == FrequencyRealtime || f == FrequencyDaily || f == FrequencyWeekly
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

func (s Status) Valid() bool { return s == StatusActive || s == StatusPaused }

type Source struct {
	ID              uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID                          `gorm:"type:uuid;index;not null" json:"user_id"`
	Name            string                             `gorm:"not null;size:100;index" json:"name"`
	Type            SourceType                         `gorm:"not null;size:20;index" json:"type"`
	URL             string                             `gorm:"not null;column:url" json:"url"`
	UpdateFrequency UpdateFrequency                    `gorm:"not null;size:20;default:daily" json:"update_frequency"`
	Priority        Priority                           `gorm:"not null;size:20;default:medium" json:"priority"`
	Status          Status                             `gorm:"not null;size:20;default:active;index" json:"status"`
	Filters         datatypes.JSONType[params.Params] `gorm:"column:filters" json:"filters"`
	Credentials     datatypes.JSONType[params.Params] `gorm:"column:credentials" json:"credentials"`

	// Fetch activity, written by the event consumer rather than by requests.
	LastFetchedAt  *time.Time `gorm:"column:last_fetched_at" json:"last_fetched_at,omitempty"`
	LastFetchBytes int        `gorm:"not null;default:0;column:last_fetch_bytes" json:"last_fetch_bytes"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Source) TableName() string { return "source" }

// MarshalJSON masks credential values; only their keys leave the process.
func (s Source) MarshalJSON() ([]byte, error) {
	type alias Source
	out := struct {
		alias
		Filters     params.Params `json:"filters"`
		Credentials params.Params `json:"credentials"`
	}{
		alias:       alias(s),
		Filters:     s.Filters.Data(),
		Credentials: s.Credentials.Data().Masked(),
	}
	if out.Filters == nil {
		out.Filters = params.Params{}
	}
	return json.Marshal(out)
}

// ApplyDefaults fills the enum fields left blank by a create request.
func (s *Source) ApplyDefaults() {
	if s.UpdateFrequency == "" {
		s.UpdateFrequency = FrequencyDaily
	}
	if s.Priority == "" {
		s.Priority = PriorityMedium
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
}

// Validate checks the field constraints shared by create and update.
func (s *Source) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" || len([]rune(name)) > 100 {
		return fmt.Errorf("%w: name must be 1-100 characters", errs.ErrInvalidArgument)
	}
	if !s.Type.Valid() {
		return fmt.Errorf("%w: unknown source type %q", errs.ErrInvalidArgument, s.Type)
	}
	if err := ValidateURL(s.URL); err != nil {
		return err
	}
	if !s.UpdateFrequency.Valid() {
		return fmt.Errorf("%w: unknown update frequency %q", errs.ErrInvalidArgument, s.UpdateFrequency)
	}
	if !s.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", errs.ErrInvalidArgument, s.Priority)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", errs.ErrInvalidArgument, s.Status)
	}
	return nil
}

func ValidateURL(raw string) error {
	if len(raw) < 5 {
		return fmt.Errorf("%w: url must be at least 5 characters", errs.ErrInvalidArgument)
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return fmt.Errorf("%w: url must start with http:// or https://", errs.ErrInvalidArgument)
	}
	return nil
}
