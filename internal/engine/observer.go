package engine

import "time"

// EventType represents different lifecycle phases of an engine operation
type EventType string

const (
	EventImportStart EventType = "import_start"
	EventImportEnd   EventType = "import_end"
	EventQueryStart  EventType = "query_start"
	EventQueryEnd    EventType = "query_end"
	EventInsights    EventType = "insights"
	EventTableDrop   EventType = "table_drop"
	EventAssist      EventType = "assist"
)

// Event represents a lifecycle event of one request
type Event struct {
	Type      EventType     // Type of event
	RequestID string        // Request ID for tracing
	Owner     string        // Caller the request runs for
	Timestamp time.Time     // When the event occurred
	Duration  time.Duration // Set on *_end events
	Format    string        // Import format, import events only
	Rows      int           // Rows imported or returned
	Data      interface{}   // Phase-specific data (query text, table name)
	Err       error         // Failure, on *_end and insights events
}

// Observer interface for event subscribers
// Observers receive events at major execution phases
type Observer interface {
	OnEvent(event Event)
}
