package domain

import (
	"github.com/yungbote/newsboy-backend/internal/domain/auth"
	"github.com/yungbote/newsboy-backend/internal/domain/params"
	"github.com/yungbote/newsboy-backend/internal/domain/sources"
	"github.com/yungbote/newsboy-backend/internal/domain/summaries"
	"github.com/yungbote/newsboy-backend/internal/domain/user"
)

type (
	User      = user.User
	UserToken = auth.UserToken

	Source          = sources.Source
	SourceType      = sources.SourceType
	UpdateFrequency = sources.UpdateFrequency
	Priority        = sources.Priority
	SourceStatus    = sources.Status

	Summary         = summaries.Summary
	SummaryTemplate = summaries.Template

	Params = params.Params
)

const (
	SourceTypeGithub    = sources.SourceTypeGithub
	SourceTypeArxiv     = sources.SourceTypeArxiv
	SourceTypeBlog      = sources.SourceTypeBlog
	SourceTypeCommunity = sources.SourceTypeCommunity
	SourceTypeNews      = sources.SourceTypeNews

	SourceStatusActive = sources.StatusActive
	SourceStatusPaused = sources.StatusPaused
)

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserToken{},
		&Source{},
		&SummaryTemplate{},
		&Summary{},
	}
}
