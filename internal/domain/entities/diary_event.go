package entities

import (
	"time"

	"github.com/google/uuid"
)

// DiaryEventType represents the kind of change published on the event bus
type DiaryEventType string

const (
	DiaryEventEntryCreated   DiaryEventType = "entry.created"
	DiaryEventCatalogUpdated DiaryEventType = "catalog.updated"
)

// DiaryEvent is published after every write to the diary or the catalog.
type DiaryEvent struct {
	ID        string         `json:"id"`
	EventType DiaryEventType `json:"event_type"`
	SubjectID string         `json:"subject_id"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewDiaryEvent creates a new diary event
func NewDiaryEvent(eventType DiaryEventType, subjectID string) *DiaryEvent {
	return &DiaryEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		SubjectID: subjectID,
		Timestamp: time.Now().UTC(),
	}
}
