package notify

import (
	"log/slog"
	"time"
)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSender registers a channel sender at construction time.
func WithSender(channel Channel, sender Sender) DispatcherOption {
	return func(d *Dispatcher) {
		if sender != nil {
			d.senders[channel] = sender
		}
	}
}

// WithRetryPolicy replaces the default single-attempt policy.
func WithRetryPolicy(policy RetryPolicy) DispatcherOption {
	return func(d *Dispatcher) {
		if policy != nil {
			d.policy = policy
		}
	}
}

// WithBatchSize bounds how many deliveries one DispatchPending call claims.
func WithBatchSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// WithPullInterval sets how often the poll loop checks for due deliveries.
func WithPullInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.pullInterval = interval
		}
	}
}

// WithSendTimeout bounds each outbound transport call so a hung provider
// cannot stall the rest of the batch indefinitely.
func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// WithStaleAfter sets how long a delivery may sit in processing before the
// poll loop assumes its dispatcher died and releases it. Zero disables
// stale recovery.
func WithStaleAfter(age time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.staleAfter = age
	}
}

// WithWakeChannel connects the poll loop to a trigger, so emits are worked
// off immediately instead of on the next tick.
func WithWakeChannel(wake <-chan struct{}) DispatcherOption {
	return func(d *Dispatcher) {
		d.wake = wake
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}
