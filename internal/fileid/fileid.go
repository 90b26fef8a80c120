// Package fileid derives stable document IDs from file paths so that
// re-ingesting a watched file updates the same knowledge-base document.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "kb:"

// DocID returns a deterministic document ID for the given absolute path.
func DocID(absolutePath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return prefix + hex.EncodeToString(sum[:])
}
