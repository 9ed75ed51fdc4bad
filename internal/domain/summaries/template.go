package summaries

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/domain/params"
)

// Template is a reusable, named bundle of generation parameters.
type Template struct {
	ID          uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                          `gorm:"type:uuid;index;not null" json:"user_id"`
	Name        string                             `gorm:"not null" json:"name"`
	Description string                             `gorm:"type:text" json:"description"`
	Parameters  datatypes.JSONType[params.Params] `gorm:"column:parameters" json:"parameters"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Template) TableName() string { return "summary_template" }

func (t Template) MarshalJSON() ([]byte, error) {
	type alias Template
	p := t.Parameters.Data()
	if p == nil {
		p = params.Params{}
	}
	return json.Marshal(struct {
		alias
		Parameters params.Params `json:"parameters"`
	}{alias: alias(t), Parameters: p})
}
