package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest - a stable hex digest of the given parts. Parts are length-prefixed so that
// ("ab", "c") and ("a", "bc") produce different digests.
func Digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		var l [8]byte
		n := uint64(len(p))
		for i := 0; i < 8; i++ {
			l[i] = byte(n >> (8 * i))
		}
		h.Write(l[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
