package domain

// Event levels shown on the dashboard.
const (
	EventInfo    = "info"
	EventSuccess = "success"
	EventWarning = "warning"
	EventError   = "error"
)

// Event is one structured log/status message pushed to observers.
type Event struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// EventPublisher fans events out to connected observers. Delivery is
// best-effort: a slow or broken observer must never block the publisher.
type EventPublisher interface {
	Publish(event Event)
}
