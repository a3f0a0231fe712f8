// Package idhash computes deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeDeliveryID returns the hex SHA256 of a raw delivery body.
// Byte-identical redeliveries share an id.
func ComputeDeliveryID(body []byte) string {
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}

// ShortMint renders a mint as first4…last4 for display.
// Mints of eight characters or fewer are returned unchanged.
func ShortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:4] + "…" + mint[len(mint)-4:]
}
