package realtime

// Event is the envelope pushed to connected clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	// EventUnreadCount carries the recipient's current unread notification
	// count. Pushed on connect and after every change.
	EventUnreadCount = "unread_count"
)

// UnreadCountData is the payload for EventUnreadCount.
type UnreadCountData struct {
	Count int64 `json:"count"`
}
