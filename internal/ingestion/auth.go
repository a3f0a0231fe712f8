package ingestion

import (
	"crypto/subtle"
	"errors"
	"strings"
)

// ErrUnauthorized is returned when a delivery carries a missing or wrong secret.
var ErrUnauthorized = errors.New("unauthorized")

const bearerPrefix = "Bearer "

// checkWebhookAuth accepts the secret plainly or as a bearer token.
// An empty secret disables the check.
func checkWebhookAuth(secret, header string) error {
	if secret == "" {
		return nil
	}
	token := header
	if strings.HasPrefix(header, bearerPrefix) {
		token = strings.TrimPrefix(header, bearerPrefix)
	}
	if secureEqual(token, secret) || secureEqual(header, secret) {
		return nil
	}
	return ErrUnauthorized
}

// checkBearerAuth requires "Bearer <secret>". An empty secret disables the check.
func checkBearerAuth(secret, header string) error {
	if secret == "" {
		return nil
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return ErrUnauthorized
	}
	if !secureEqual(strings.TrimPrefix(header, bearerPrefix), secret) {
		return ErrUnauthorized
	}
	return nil
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
