package notify

import "time"

// RetryPolicy decides whether a failed delivery gets another attempt and
// how long to wait before it. attempts is the number of attempts already
// made, including the one that just failed.
//
// The engine defaults to NoRetry: one attempt per delivery. Callers who
// want retries inject a policy explicitly.
type RetryPolicy interface {
	NextAttempt(attempts int) (delay time.Duration, retry bool)
}

// NoRetry never schedules another attempt.
type NoRetry struct{}

func (NoRetry) NextAttempt(int) (time.Duration, bool) { return 0, false }

// LinearBackoff retries up to MaxAttempts total attempts, waiting
// attempts×Interval between them (30s, 60s, 90s… with the default
// interval).
type LinearBackoff struct {
	MaxAttempts int
	Interval    time.Duration
}

func (p LinearBackoff) NextAttempt(attempts int) (time.Duration, bool) {
	if attempts >= p.MaxAttempts {
		return 0, false
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return time.Duration(attempts) * interval, true
}
