package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashUserKey derives a stable, filesystem-safe key from a user identity.
// Raw identities (emails, guest ids, IPs) never appear in storage paths.
func HashUserKey(userID string) string {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		trimmed = "anonymous"
	}
	sum := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(sum[:8])
}
