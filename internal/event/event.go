package event

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of event.
type Type int

const (
	BatchStarted Type = iota + 1
	CloneStarted
	CloneCompleted
	CloneFailed
	VerifyOK
	VerifyFailed
	BatchComplete
)

var typeNames = [...]string{
	BatchStarted:   "BatchStarted",
	CloneStarted:   "CloneStarted",
	CloneCompleted: "CloneCompleted",
	CloneFailed:    "CloneFailed",
	VerifyOK:       "VerifyOK",
	VerifyFailed:   "VerifyFailed",
	BatchComplete:  "BatchComplete",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from a clone run.
type Event struct {
	Type        Type
	Timestamp   time.Time
	JobID       uuid.UUID
	Source      string
	Destination string
	Size        int64 // logical size of the cloned entry
	Total       int64 // number of jobs (BatchStarted)
	Error       error
}

// Emit sends ev on ch without blocking if ch is nil. A zero Timestamp is
// filled in with the current time.
func Emit(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ch <- ev
}
