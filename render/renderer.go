package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/dmitrymomot/notify"
)

// TemplateSource resolves the stored template for one (event type, channel)
// pair. notify.Storage satisfies this interface; the YAML Catalog is a
// file-backed alternative for development. Returning notify.ErrNotFound is
// a normal condition, not a failure.
type TemplateSource interface {
	Template(ctx context.Context, eventType notify.EventType, channel notify.Channel) (*notify.Template, error)
}

// Renderer resolves templates and substitutes event metadata into their
// placeholders. Rendering never fails: a missing template or an unreachable
// source degrades to a generic message so dispatch is never blocked purely
// by missing template authoring.
type Renderer struct {
	source TemplateSource
	logger *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used when the template source misbehaves.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Renderer over the given template source.
func New(source TemplateSource, opts ...Option) *Renderer {
	r := &Renderer{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render implements notify.Renderer.
func (r *Renderer) Render(ctx context.Context, eventType notify.EventType, channel notify.Channel, metadata map[string]any) notify.Content {
	tmpl, err := r.source.Template(ctx, eventType, channel)
	if err != nil {
		if !errors.Is(err, notify.ErrNotFound) {
			r.logger.Warn("template source unreachable, using fallback",
				slog.String("event_type", string(eventType)),
				slog.String("channel", string(channel)),
				slog.String("error", err.Error()))
		}
		return Fallback(eventType, channel, metadata)
	}

	return notify.Content{
		Subject: Substitute(tmpl.Subject, metadata),
		Body:    Substitute(tmpl.Body, metadata),
	}
}

// placeholderRe matches `{{ key }}` where key is word characters and dots,
// with optional surrounding whitespace.
var placeholderRe = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// Substitute replaces each `{{ key }}` placeholder with the matching
// metadata value: exact key first, then case-insensitive, and when the key
// is absent the placeholder stays verbatim in the output. Values are
// coerced with fmt.Sprint, so non-string metadata never breaks rendering.
func Substitute(text string, metadata map[string]any) string {
	if text == "" || len(metadata) == 0 {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		if v, ok := metadata[key]; ok {
			return fmt.Sprint(v)
		}
		// Several keys may case-fold to the placeholder; take the first in
		// sort order so repeated renders are stable.
		var candidates []string
		for k := range metadata {
			if strings.EqualFold(k, key) {
				candidates = append(candidates, k)
			}
		}
		if len(candidates) > 0 {
			sort.Strings(candidates)
			return fmt.Sprint(metadata[candidates[0]])
		}
		return match
	})
}

// Fallback builds the generic rendering used when no template exists:
// a "Notification: <type>" subject (email only) and a body listing the
// event type and its metadata as sorted key: value lines.
func Fallback(eventType notify.EventType, channel notify.Channel, metadata map[string]any) notify.Content {
	var b strings.Builder
	b.WriteString("Event: ")
	b.WriteString(string(eventType))

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(fmt.Sprint(metadata[k]))
	}

	content := notify.Content{Body: b.String()}
	if channel == notify.ChannelEmail {
		content.Subject = "Notification: " + string(eventType)
	}
	return content
}
