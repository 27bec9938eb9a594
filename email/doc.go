// Package email provides notify.Sender implementations for the email
// channel.
//
// Three senders are available:
//
//   - HTTPSender posts the full notification payload ({event_id,
//     notification_type, recipient, subject, body, metadata}) to an
//     external email service as one JSON request; any 2xx acknowledgment
//     is success.
//   - PostmarkSender delivers through Postmark's transactional API and
//     treats a non-zero ErrorCode in the acknowledgment as failure.
//   - DevSender writes messages to disk for local development.
//
// All constructors validate their configuration up front and return
// ErrInvalidConfig before any outbound call can happen.
package email
