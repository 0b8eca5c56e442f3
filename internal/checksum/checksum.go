// Package checksum fingerprints note content for change detection and
// optimistic concurrency.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// Matches reports whether data hashes to want.
func Matches(want string, data []byte) bool {
	return Sum(data) == want
}
