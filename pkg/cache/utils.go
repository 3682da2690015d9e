package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key joins parts into a colon-separated cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Digest returns a short content hash suitable as a key component.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}
