// Package sms provides the notify.Sender implementation for the SMS
// channel: a single-request HTTP gateway client.
//
// Two quirks of SMS gateways are isolated here so the dispatcher never sees
// them. Message bodies are sanitized before transmission (line breaks,
// non-printable and non-ASCII characters are rejected by many gateways),
// and the gateway's heterogeneous response encodings (an explicit error
// field, a {"status":"error","reason":...} envelope, an explicit
// {"success":true}, a numeric success code) are all normalized into one
// internal success/failure result. Failures surface as notify.SendError
// carrying the best available provider error text.
package sms
