package realtime

// Event types yang dikirim server -> client
const (
	EventPresenceChanged   = "presence.changed"
	EventMessageNew        = "message.new"
	EventMessageRead       = "message.read"
	EventNotificationNew   = "notification.new"
	EventNotificationCount = "notification.count-changed"
	EventTyping            = "typing"
)

type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}
