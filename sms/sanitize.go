package sms

import "strings"

// Sanitize prepares a message body for SMS gateways that reject control
// characters and non-ASCII payloads: line breaks become spaces, everything
// outside printable ASCII is dropped, runs of whitespace collapse and the
// result is trimmed.
func Sanitize(message string) string {
	var b strings.Builder
	b.Grow(len(message))

	lastSpace := false
	for _, r := range message {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case r >= 0x20 && r <= 0x7E:
			if r == ' ' {
				if lastSpace {
					continue
				}
				lastSpace = true
			} else {
				lastSpace = false
			}
			b.WriteRune(r)
		default:
			// Non-printable or non-ASCII: dropped.
		}
	}
	return strings.TrimSpace(b.String())
}
