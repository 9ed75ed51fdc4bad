package realtime

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventGenerationStarted   EventType = "generation.started"
	EventGenerationCompleted EventType = "generation.completed"
	EventGenerationFailed    EventType = "generation.failed"
	EventSourceRefreshed     EventType = "source.refreshed"
)

// Event is a lifecycle notification for internal consumers. It never feeds
// back into an HTTP response.
type Event struct {
	Type      EventType   `json:"type"`
	UserID    uuid.UUID   `json:"user_id"`
	SummaryID *uuid.UUID  `json:"summary_id,omitempty"`
	SourceIDs []uuid.UUID `json:"source_ids,omitempty"`
	Error     string      `json:"error,omitempty"`
	At        time.Time   `json:"at"`

	// ContentBytes is the size of the text a source refresh fetched.
	ContentBytes int `json:"content_bytes,omitempty"`
}

func NewEvent(t EventType, userID uuid.UUID) Event {
	return Event{Type: t, UserID: userID, At: time.Now().UTC()}
}
