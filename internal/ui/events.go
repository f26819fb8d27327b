package ui

import "github.com/bamsammich/clonefile/internal/event"

// Event is re-exported for presenters.
type Event = event.Event

// Re-export event types for convenience.
const (
	BatchStarted   = event.BatchStarted
	CloneStarted   = event.CloneStarted
	CloneCompleted = event.CloneCompleted
	CloneFailed    = event.CloneFailed
	VerifyOK       = event.VerifyOK
	VerifyFailed   = event.VerifyFailed
	BatchComplete  = event.BatchComplete
)
