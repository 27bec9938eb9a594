package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrymomot/notify"
)

// DevSender implements notify.Sender for local development. It writes each
// message as a .txt file plus a .json metadata file into a directory
// instead of calling an email service.
type DevSender struct {
	dir string
}

// NewDevSender creates a development sender writing into dir. The directory
// is created on first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

type devMetadata struct {
	Timestamp string `json:"timestamp"`
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	SendTo    string `json:"send_to"`
	Subject   string `json:"subject"`
}

// Send implements notify.Sender.
func (d *DevSender) Send(ctx context.Context, msg notify.Message) (notify.SendResult, error) {
	if msg.Recipient.Email == "" {
		return notify.SendResult{}, ErrMissingAddress
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	now := time.Now()
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), safeFilename(string(msg.EventType)))

	bodyPath := filepath.Join(d.dir, base+".txt")
	if err := os.WriteFile(bodyPath, []byte(msg.Subject+"\n\n"+msg.Body), 0644); err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	meta, err := json.MarshalIndent(devMetadata{
		Timestamp: now.Format(time.RFC3339),
		EventID:   msg.EventID.String(),
		EventType: string(msg.EventType),
		SendTo:    msg.Recipient.Email,
		Subject:   msg.Subject,
	}, "", "  ")
	if err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0644); err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	return notify.SendResult{Response: "saved to " + bodyPath}, nil
}

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func safeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameRe.ReplaceAllString(s, "")
	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "notification"
	}
	return strings.ToLower(s)
}
