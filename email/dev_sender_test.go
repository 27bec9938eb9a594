package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notify/email"
)

func TestDevSender_Send(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("writes body and metadata files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s := email.NewDevSender(dir)
		msg := emailMessage("asha@example.com")

		result, err := s.Send(ctx, msg)
		require.NoError(t, err)
		assert.Contains(t, result.Response, "saved to ")

		txt, err := filepath.Glob(filepath.Join(dir, "*.txt"))
		require.NoError(t, err)
		require.Len(t, txt, 1)
		body, err := os.ReadFile(txt[0])
		require.NoError(t, err)
		assert.Equal(t, "Payment received\n\nHello Asha, we received 50.", string(body))

		jsons, err := filepath.Glob(filepath.Join(dir, "*.json"))
		require.NoError(t, err)
		require.Len(t, jsons, 1)
		raw, err := os.ReadFile(jsons[0])
		require.NoError(t, err)

		var meta map[string]any
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.Equal(t, "asha@example.com", meta["send_to"])
		assert.Equal(t, "payment.succeeded", meta["event_type"])
		assert.Equal(t, msg.EventID.String(), meta["event_id"])
	})

	t.Run("creates the directory on first send", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "outbox", "emails")
		s := email.NewDevSender(dir)

		_, err := s.Send(ctx, emailMessage("asha@example.com"))
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("missing address", func(t *testing.T) {
		t.Parallel()

		s := email.NewDevSender(t.TempDir())
		_, err := s.Send(ctx, emailMessage(""))
		assert.ErrorIs(t, err, email.ErrMissingAddress)
	})
}
