package services

import (
	"context"
	"time"

	"github.com/yungbote/newsboy-backend/internal/data/repos"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/realtime"
)

const sourceActivityTimeout = 5 * time.Second

// SourceActivity consumes lifecycle events from the bus and keeps each
// source's fetch stamp current. A refresh records the fetched size; a
// completed generation only moves the stamp.
type SourceActivity struct {
	log        *logger.Logger
	sourceRepo repos.SourceRepo
}

func NewSourceActivity(log *logger.Logger, sourceRepo repos.SourceRepo) *SourceActivity {
	return &SourceActivity{log: log.With("component", "SourceActivity"), sourceRepo: sourceRepo}
}

func (a *SourceActivity) Handle(ev realtime.Event) {
	var bytes *int
	switch ev.Type {
	case realtime.EventSourceRefreshed:
		n := ev.ContentBytes
		bytes = &n
	case realtime.EventGenerationCompleted:
	default:
		return
	}
	if len(ev.SourceIDs) == 0 {
		return
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), sourceActivityTimeout)
	defer cancel()
	if err := a.sourceRepo.MarkFetched(dbctx.With(ctx), ev.UserID, ev.SourceIDs, at.UTC(), bytes); err != nil {
		a.log.Warn("Recording source fetch failed", "event", ev.Type, "user_id", ev.UserID, "error", err)
	}
}
