package sms

import "errors"

var (
	// ErrInvalidConfig is returned when the gateway sender is constructed
	// without an API key or endpoint. No outbound call is ever attempted
	// with an invalid configuration.
	ErrInvalidConfig = errors.New("sms: invalid config")

	// ErrMissingPhone is returned when the message recipient has no phone
	// number.
	ErrMissingPhone = errors.New("sms: recipient has no phone number")

	// ErrEmptyMessage is returned when sanitization leaves nothing to send.
	ErrEmptyMessage = errors.New("sms: message empty after sanitization")

	// ErrSendFailed wraps gateway-level failures, including every response
	// shape the normalizer classifies as negative.
	ErrSendFailed = errors.New("sms: send failed")
)
