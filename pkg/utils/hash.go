package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes computes the hex-encoded SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
