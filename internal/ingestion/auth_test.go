package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckWebhookAuth(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		header  string
		wantErr error
	}{
		{"no secret configured", "", "", nil},
		{"no secret ignores header", "", "anything", nil},
		{"plain secret", "s3cret", "s3cret", nil},
		{"bearer secret", "s3cret", "Bearer s3cret", nil},
		{"missing header", "s3cret", "", ErrUnauthorized},
		{"wrong secret", "s3cret", "nope", ErrUnauthorized},
		{"wrong bearer", "s3cret", "Bearer nope", ErrUnauthorized},
		{"prefix of secret", "s3cret", "s3c", ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, checkWebhookAuth(tt.secret, tt.header), tt.wantErr)
		})
	}
}

func TestCheckBearerAuth(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		header  string
		wantErr error
	}{
		{"no secret configured", "", "", nil},
		{"bearer secret", "internal", "Bearer internal", nil},
		{"plain secret rejected", "internal", "internal", ErrUnauthorized},
		{"lowercase scheme rejected", "internal", "bearer internal", ErrUnauthorized},
		{"wrong secret", "internal", "Bearer other", ErrUnauthorized},
		{"missing header", "internal", "", ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, checkBearerAuth(tt.secret, tt.header), tt.wantErr)
		})
	}
}
