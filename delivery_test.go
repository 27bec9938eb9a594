package notify_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notify"
)

func TestChannel_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, notify.ChannelEmail.Valid())
	assert.True(t, notify.ChannelSMS.Valid())
	assert.False(t, notify.Channel("").Valid())
	assert.False(t, notify.Channel("pigeon").Valid())
}

func TestStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.False(t, notify.StatusPending.Terminal())
	assert.False(t, notify.StatusProcessing.Terminal())
	assert.True(t, notify.StatusSent.Terminal())
	assert.True(t, notify.StatusFailed.Terminal())
}

func TestPreference_Channels(t *testing.T) {
	t.Parallel()

	recipientID := uuid.New()
	full := notify.Recipient{
		ID:       recipientID,
		Name:     "Asha",
		Email:    "asha@example.com",
		Phone:    "+15550100",
		IsActive: true,
	}

	tests := []struct {
		name      string
		pref      notify.Preference
		recipient notify.Recipient
		want      []notify.Channel
	}{
		{
			name:      "disabled yields nothing",
			pref:      notify.Preference{Enabled: false, ViaEmail: true, ViaSMS: true},
			recipient: full,
			want:      nil,
		},
		{
			name:      "enabled without channel flags yields nothing",
			pref:      notify.Preference{Enabled: true},
			recipient: full,
			want:      nil,
		},
		{
			name:      "both flags with both contacts",
			pref:      notify.Preference{Enabled: true, ViaEmail: true, ViaSMS: true},
			recipient: full,
			want:      []notify.Channel{notify.ChannelEmail, notify.ChannelSMS},
		},
		{
			name: "sms flag without phone drops the channel",
			pref: notify.Preference{Enabled: true, ViaEmail: true, ViaSMS: true},
			recipient: notify.Recipient{
				ID:       recipientID,
				Email:    "asha@example.com",
				IsActive: true,
			},
			want: []notify.Channel{notify.ChannelEmail},
		},
		{
			name: "email flag without address drops the channel",
			pref: notify.Preference{Enabled: true, ViaEmail: true, ViaSMS: true},
			recipient: notify.Recipient{
				ID:       recipientID,
				Phone:    "+15550100",
				IsActive: true,
			},
			want: []notify.Channel{notify.ChannelSMS},
		},
		{
			name:      "sms only",
			pref:      notify.Preference{Enabled: true, ViaSMS: true},
			recipient: full,
			want:      []notify.Channel{notify.ChannelSMS},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.pref.Channels(tt.recipient))
		})
	}
}
