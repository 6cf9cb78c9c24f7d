// Package idgen mints the random identifiers used across the API
// surface, such as "cmp_…" company IDs and "conv_…" conversation IDs.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

func randomHex(numBytes int) string {
	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		panic("idgen: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// WithPrefix returns prefix followed by 24 hex characters of entropy.
// Prefixes identify the resource kind ("cmp_", "conv_", "lead_", "kc_").
func WithPrefix(prefix string) string {
	return prefix + randomHex(12)
}

// Hex returns numBytes of entropy as a hex string. Used for opaque
// secrets such as invite tokens and webhook signing keys.
func Hex(numBytes int) string {
	return randomHex(numBytes)
}
