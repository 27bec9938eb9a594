package notify

import "github.com/google/uuid"

// Recipient is someone who may receive notifications. Recipients are managed
// by an external administrative surface; the engine only reads them.
type Recipient struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	IsActive bool      `json:"is_active"`
}

// Preference holds a recipient's opt-in settings for one event type.
// A missing Preference row means the recipient is not eligible for that
// event type at all; there is no implicit default-enable.
type Preference struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	EventType   EventType `json:"event_type"`
	Enabled     bool      `json:"enabled"`
	ViaEmail    bool      `json:"via_email"`
	ViaSMS      bool      `json:"via_sms"`
}

// Channels returns the channels the recipient is eligible for under this
// preference. A channel is included only when its flag is set and the
// recipient carries the matching contact field.
func (p Preference) Channels(r Recipient) []Channel {
	if !p.Enabled {
		return nil
	}
	var channels []Channel
	if p.ViaEmail && r.Email != "" {
		channels = append(channels, ChannelEmail)
	}
	if p.ViaSMS && r.Phone != "" {
		channels = append(channels, ChannelSMS)
	}
	return channels
}
