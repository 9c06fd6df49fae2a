package install

import "github.com/ralt/appget/internal/transfer"

// EventType identifies a stage of an installation
type EventType int

const (
	EventStarted EventType = iota
	EventProgress
	EventTransferred
	EventCompleted
	EventFailed
)

// String returns the string representation of EventType
func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventTransferred:
		return "transferred"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports installation progress. Package is the display name.
type Event struct {
	Type     EventType
	Package  string
	ID       string
	Progress *transfer.Progress
	Err      error
}

// Sink receives events. Progress events arrive from the transfer goroutine.
// Transferred carries the final snapshot once the download is in place.
type Sink func(Event)
