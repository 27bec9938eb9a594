package trigger

import "context"

// Local is an in-process emit→dispatch handoff: a buffered one-slot signal
// channel. Wake never blocks: if a wakeup is already queued, another one
// carries no extra information and is dropped.
type Local struct {
	ch chan struct{}
}

// NewLocal creates an in-process trigger.
func NewLocal() *Local {
	return &Local{ch: make(chan struct{}, 1)}
}

// Wake implements notify.Waker.
func (l *Local) Wake(ctx context.Context) {
	select {
	case l.ch <- struct{}{}:
	default:
	}
}

// Wakeups returns the channel a dispatcher selects on
// (notify.WithWakeChannel).
func (l *Local) Wakeups() <-chan struct{} {
	return l.ch
}
