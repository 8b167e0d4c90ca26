// Package checksum produces the content fingerprints the embedding
// journal records to detect note edits between sync passes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Changed reports whether data no longer matches a previously recorded
// digest. Unknown paths pass an empty digest and always count as changed.
func Changed(previous string, data []byte) bool {
	return previous != Sum(data)
}
