package sms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notify/sms"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text passes through",
			input: "Payment of 50 received.",
			want:  "Payment of 50 received.",
		},
		{
			name:  "line breaks become spaces",
			input: "line one\nline two\r\nline three",
			want:  "line one line two line three",
		},
		{
			name:  "tabs become spaces",
			input: "a\tb",
			want:  "a b",
		},
		{
			name:  "whitespace runs collapse",
			input: "a   b \n\n c",
			want:  "a b c",
		},
		{
			name:  "non-ascii is dropped",
			input: "prix 50€ — payé ✓",
			want:  "prix 50 pay",
		},
		{
			name:  "control characters are dropped",
			input: "a\x00b\x1fc",
			want:  "abc",
		},
		{
			name:  "leading and trailing whitespace trimmed",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "only non-printable leaves nothing",
			input: "\n\t\x00✓",
			want:  "",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sms.Sanitize(tt.input))
		})
	}
}
