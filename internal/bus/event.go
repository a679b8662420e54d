package bus

import "time"

// Event kinds published on the bus.
const (
	KindMessageAppended = "message.appended"
	KindRefreshStatus   = "refresh.status_changed"

	// Console-local notifications; the TUI redraws on these.
	KindConversationsChanged = "console.conversations_changed"
	KindThreadChanged        = "console.thread_changed"
	KindSelectionChanged     = "console.selection_changed"
)

// Event represents a domain event published on the bus.
// Key scopes the event to one conversation; empty means unscoped.
type Event struct {
	Kind      string
	Key       string
	Timestamp time.Time
	Payload   any
}
