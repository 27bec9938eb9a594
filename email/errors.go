package email

import "errors"

var (
	// ErrInvalidConfig is returned when a sender is constructed without the
	// credentials it needs. No outbound call is ever attempted with an
	// invalid configuration.
	ErrInvalidConfig = errors.New("email: invalid config")

	// ErrMissingAddress is returned when the message recipient has no email
	// address.
	ErrMissingAddress = errors.New("email: recipient has no email address")

	// ErrSendFailed wraps transport-level failures.
	ErrSendFailed = errors.New("email: send failed")
)
