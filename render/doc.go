// Package render resolves notification templates and substitutes event
// metadata into `{{ placeholder }}` tokens.
//
// Rendering is infallible: when no template exists for an
// (event type, channel) pair, or the template source is unreachable, the
// renderer falls back to a generic "Notification: <type>" message carrying
// the metadata as structured text. Missing placeholder keys stay verbatim
// in the output so template/metadata mismatches are visible to the admins
// who review deliveries.
//
// Placeholder keys may contain word characters and dots (flat or dotted
// metadata keys), with optional whitespace inside the braces. Lookup is
// exact first, then case-insensitive; values are coerced with fmt.Sprint.
//
//	r := render.New(storage)
//	content := r.Render(ctx, "payment.succeeded", notify.ChannelEmail,
//		map[string]any{"name": "Asha", "amount": 50})
//
// The Catalog type loads a template set from YAML for development and
// bootstrap use.
package render
