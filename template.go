package notify

// Template is a stored text pattern for one (event type, channel) pair.
// Bodies may contain `{{ key }}` placeholders resolved against event
// metadata at dispatch time. Templates are authored externally; a missing
// template never blocks dispatch (the renderer falls back to a generic
// message).
type Template struct {
	EventType EventType `json:"event_type" yaml:"event_type"`
	Channel   Channel   `json:"channel" yaml:"channel"`
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"` // email only
	Body      string    `json:"body" yaml:"body"`
}
