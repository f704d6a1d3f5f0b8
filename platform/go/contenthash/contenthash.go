// Package contenthash derives stable digests for AI generation inputs.
// Kept separate from the artifact cache so the hashing scheme can evolve
// without touching cache read/write semantics.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Digest returns a deterministic SHA-256 hex digest over the input content
// plus an item count. The count disambiguates inputs whose concatenated text
// is similar but whose structure drifted (e.g., a review added or removed).
func Digest(content string, itemCount int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%d:%s", itemCount, content))
	return hex.EncodeToString(sum[:])
}
