package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a "prefix:digest" cache key from the JSON encoding of its
// parts. The full SHA-256 digest is kept; truncating would invite collisions
// between near-identical option sets.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the SHA-256 digest of data as a 64-character hex string.
// Content hashes computed with it feed the Keyer key builders.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
