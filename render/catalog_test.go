package render_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notify"
	"github.com/dmitrymomot/notify/render"
)

const catalogYAML = `
templates:
  - event_type: payment.succeeded
    channel: email
    subject: "Payment received"
    body: "Hello {{ name }}, we received {{ amount }}."
  - event_type: payment.succeeded
    channel: sms
    body: "Payment of {{ amount }} received."
  - event_type: generation.failed
    channel: email
    subject: "Generation failed"
    body: "Job {{ job_id }} failed."
`

func TestLoadCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("parses templates", func(t *testing.T) {
		t.Parallel()

		c, err := render.LoadCatalog(strings.NewReader(catalogYAML))
		require.NoError(t, err)
		assert.Equal(t, 3, c.Len())

		tmpl, err := c.Template(ctx, "payment.succeeded", notify.ChannelEmail)
		require.NoError(t, err)
		assert.Equal(t, "Payment received", tmpl.Subject)
		assert.Equal(t, "Hello {{ name }}, we received {{ amount }}.", tmpl.Body)

		tmpl, err = c.Template(ctx, "payment.succeeded", notify.ChannelSMS)
		require.NoError(t, err)
		assert.Empty(t, tmpl.Subject)
	})

	t.Run("unknown pair returns not found", func(t *testing.T) {
		t.Parallel()

		c, err := render.LoadCatalog(strings.NewReader(catalogYAML))
		require.NoError(t, err)

		_, err = c.Template(ctx, "payment.succeeded", notify.Channel("push"))
		assert.ErrorIs(t, err, notify.ErrNotFound)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		_, err := render.LoadCatalog(strings.NewReader("templates: [not a template"))
		assert.ErrorIs(t, err, render.ErrInvalidCatalog)
	})

	t.Run("missing event type", func(t *testing.T) {
		t.Parallel()

		_, err := render.LoadCatalog(strings.NewReader(`
templates:
  - channel: email
    body: "orphan"
`))
		assert.ErrorIs(t, err, render.ErrInvalidCatalog)
	})

	t.Run("invalid channel", func(t *testing.T) {
		t.Parallel()

		_, err := render.LoadCatalog(strings.NewReader(`
templates:
  - event_type: payment.succeeded
    channel: carrier-pigeon
    body: "nope"
`))
		assert.ErrorIs(t, err, render.ErrInvalidCatalog)
	})
}

func TestLoadCatalogFile(t *testing.T) {
	t.Parallel()

	t.Run("loads from disk", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "templates.yaml")
		require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0644))

		c, err := render.LoadCatalogFile(path)
		require.NoError(t, err)
		assert.Equal(t, 3, c.Len())
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := render.LoadCatalogFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, render.ErrInvalidCatalog)
	})
}
