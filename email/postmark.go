package email

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/notify"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// PostmarkConfig configures the Postmark-backed sender.
type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"EMAIL_SENDER"`
}

// PostmarkSender delivers email through Postmark's transactional API.
// A response with ErrorCode > 0 is a failure even though the HTTP call
// succeeded; the error text is Postmark's message.
type PostmarkSender struct {
	client *postmark.Client
	config PostmarkConfig
}

// NewPostmarkSender creates a Postmark-backed email sender. All fields are
// required; a misconfigured sender fails construction instead of burning
// delivery attempts.
func NewPostmarkSender(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: ServerToken is required", ErrInvalidConfig)
	}
	if cfg.AccountToken == "" {
		return nil, fmt.Errorf("%w: AccountToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// Send implements notify.Sender.
func (s *PostmarkSender) Send(ctx context.Context, msg notify.Message) (notify.SendResult, error) {
	if msg.Recipient.Email == "" {
		return notify.SendResult{}, ErrMissingAddress
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.config.SenderEmail,
		To:       msg.Recipient.Email,
		Subject:  msg.Subject,
		TextBody: msg.Body,
		Tag:      string(msg.EventType),
	})
	if err != nil {
		return notify.SendResult{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return notify.SendResult{}, &notify.SendError{
			Reason: fmt.Sprintf("postmark %d: %s", resp.ErrorCode, resp.Message),
		}
	}
	return notify.SendResult{Response: "postmark message " + resp.MessageID}, nil
}
