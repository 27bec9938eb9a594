package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notify"
)

// HTTPConfig configures the generic HTTP email transport.
type HTTPConfig struct {
	EndpointURL string `env:"EMAIL_ENDPOINT_URL,required"`
	AuthToken   string `env:"EMAIL_AUTH_TOKEN"`
}

// HTTPSender posts notifications to an external email service as a single
// JSON request. Any 2xx acknowledgment counts as success; everything else
// surfaces as ErrSendFailed with the best available error text.
type HTTPSender struct {
	config HTTPConfig
	client *http.Client
}

// httpPayload is the wire contract of the outbound email service.
type httpPayload struct {
	EventID          uuid.UUID        `json:"event_id"`
	NotificationType string           `json:"notification_type"`
	Recipient        payloadRecipient `json:"recipient"`
	Subject          string           `json:"subject"`
	Body             string           `json:"body"`
	Metadata         map[string]any   `json:"metadata,omitempty"`
}

type payloadRecipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewHTTPSender creates an email sender that posts to the configured
// endpoint.
func NewHTTPSender(cfg HTTPConfig, opts ...HTTPOption) (*HTTPSender, error) {
	if cfg.EndpointURL == "" {
		return nil, fmt.Errorf("%w: EndpointURL is required", ErrInvalidConfig)
	}
	s := &HTTPSender{
		config: cfg,
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// HTTPOption configures an HTTPSender.
type HTTPOption func(*HTTPSender)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSender) {
		if client != nil {
			s.client = client
		}
	}
}

// Send implements notify.Sender.
func (s *HTTPSender) Send(ctx context.Context, msg notify.Message) (notify.SendResult, error) {
	if msg.Recipient.Email == "" {
		return notify.SendResult{}, ErrMissingAddress
	}

	body, err := json.Marshal(httpPayload{
		EventID:          msg.EventID,
		NotificationType: string(msg.EventType),
		Recipient: payloadRecipient{
			Name:  msg.Recipient.Name,
			Email: msg.Recipient.Email,
		},
		Subject:  msg.Subject,
		Body:     msg.Body,
		Metadata: msg.Metadata,
	})
	if err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.AuthToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	// Acknowledgments are small; cap the read anyway.
	ack, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	text := strings.TrimSpace(string(ack))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if text == "" {
			text = resp.Status
		}
		return notify.SendResult{}, &notify.SendError{Reason: text, Raw: text}
	}
	return notify.SendResult{Response: text}, nil
}
