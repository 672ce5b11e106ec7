package engine

import (
	"time"

	"github.com/google/uuid"
)

// request carries the identity of one engine call through its events
type request struct {
	ID        string    // Unique request identifier
	Owner     string    // Caller the request runs for
	StartTime time.Time // When the request began
}

func newRequest(owner string) *request {
	return &request{
		ID:        uuid.New().String(),
		Owner:     owner,
		StartTime: time.Now(),
	}
}

func (r *request) event(t EventType) Event {
	return Event{Type: t, RequestID: r.ID, Owner: r.Owner}
}

func (r *request) endEvent(t EventType, rows int, err error) Event {
	ev := r.event(t)
	ev.Duration = time.Since(r.StartTime)
	ev.Rows = rows
	ev.Err = err
	return ev
}
