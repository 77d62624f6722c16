package bus

import "time"

// Event kinds produced by the watcher.
const (
	KindNewMessages   = "watcher.new_messages"
	KindConversations = "watcher.conversations"
	KindError         = "watcher.error"
)

// Event is a tagged payload handed from a producer goroutine to the UI loop.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
