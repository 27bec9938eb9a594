package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrymomot/notify"
)

// GatewayConfig configures the SMS gateway sender.
type GatewayConfig struct {
	EndpointURL string `env:"SMS_ENDPOINT_URL,required"`
	APIKey      string `env:"SMS_API_KEY,required"`
	SenderID    string `env:"SMS_SENDER_ID"`
}

// GatewaySender delivers SMS through an HTTP gateway with a single request
// carrying {api_key, message, phone, sender_id}. The gateway's response is
// normalized before it reaches the dispatcher; see normalize for the
// shapes it understands.
type GatewaySender struct {
	config GatewayConfig
	client *http.Client
}

// gatewayPayload is the wire contract of the outbound SMS gateway.
type gatewayPayload struct {
	APIKey   string `json:"api_key"`
	Message  string `json:"message"`
	Phone    string `json:"phone"`
	SenderID string `json:"sender_id,omitempty"`
}

// GatewayOption configures a GatewaySender.
type GatewayOption func(*GatewaySender)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(s *GatewaySender) {
		if client != nil {
			s.client = client
		}
	}
}

// NewGatewaySender creates an SMS sender for the configured gateway.
// Missing credentials fail construction; no outbound call is ever made
// with an invalid configuration.
func NewGatewaySender(cfg GatewayConfig, opts ...GatewayOption) (*GatewaySender, error) {
	if cfg.EndpointURL == "" {
		return nil, fmt.Errorf("%w: EndpointURL is required", ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfig)
	}
	s := &GatewaySender{
		config: cfg,
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send implements notify.Sender.
func (s *GatewaySender) Send(ctx context.Context, msg notify.Message) (notify.SendResult, error) {
	if msg.Recipient.Phone == "" {
		return notify.SendResult{}, ErrMissingPhone
	}
	message := Sanitize(msg.Body)
	if message == "" {
		return notify.SendResult{}, ErrEmptyMessage
	}

	body, err := json.Marshal(gatewayPayload{
		APIKey:   s.config.APIKey,
		Message:  message,
		Phone:    msg.Recipient.Phone,
		SenderID: s.config.SenderID,
	})
	if err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	ack, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	res := normalize(resp.StatusCode, ack)
	if !res.success {
		return notify.SendResult{}, &notify.SendError{Reason: res.errText, Raw: res.raw}
	}
	return notify.SendResult{Response: res.raw}, nil
}
