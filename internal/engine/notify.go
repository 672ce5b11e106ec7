package engine

import "time"

// AddObserver registers an observer to receive lifecycle events
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// RemoveObserver unregisters an observer
func (e *Engine) RemoveObserver(o Observer) {
	for i, obs := range e.observers {
		if obs == o {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// notify sends an event to all registered observers
func (e *Engine) notify(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, o := range e.observers {
		o.OnEvent(event)
	}
}
