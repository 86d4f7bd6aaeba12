// Package audit is the explicit audit-trail collaborator the pipeline
// appends to on import, matching, distribution and processing events.
package audit

import (
	"sync"
	"time"

	"topglobal/statements/internal/logging"
)

// Event is one audit entry.
type Event struct {
	Time   time.Time
	Entity string
	Ref    int64
	Action string
	Detail string
}

// Trail collects events in order. Appends are serialized; reads return a
// snapshot.
type Trail struct {
	mu     sync.Mutex
	events []Event
	log    logging.Logger
}

// NewTrail creates an empty trail.
func NewTrail(logger logging.Logger) *Trail {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Trail{log: logger}
}

// Append records one event.
func (t *Trail) Append(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()

	t.log.WithFields(
		logging.Field{Key: "entity", Value: e.Entity},
		logging.Field{Key: "ref", Value: e.Ref},
		logging.Field{Key: "action", Value: e.Action},
	).Debug(e.Detail)
}

// Events returns a copy of the recorded events.
func (t *Trail) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}
