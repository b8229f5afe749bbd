package imap

import (
	"errors"
	"testing"
)

func TestIsVanishedErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Message not found",
			err:      errors.New("NO Message not found"),
			expected: true,
		},
		{
			name:     "No such message",
			err:      errors.New("NO No such message with that UID"),
			expected: true,
		},
		{
			name:     "Already expunged",
			err:      errors.New("NO Message has been expunged"),
			expected: true,
		},
		{
			name:     "Network failure",
			err:      errors.New("write tcp 10.0.0.1:993: broken pipe"),
			expected: false,
		},
		{
			name:     "Server shutting down",
			err:      errors.New("BYE server shutting down"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isVanishedErr(tt.err); got != tt.expected {
				t.Errorf("isVanishedErr(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}
