package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

func newID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Fingerprint is a short deterministic hash of normalized transcript text,
// used to detect whether a transcript's stored chunks are stale.
func Fingerprint(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])[:16]
}
