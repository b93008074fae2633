package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashAPIKey computes the SHA-256 hex digest stored in api_keys.key_hash.
func HashAPIKey(rawKey string) string {
	h := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(h[:])
}
