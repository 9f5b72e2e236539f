// Package fileid names ingested files and the vectors cut from them.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const prefix = "file:"

// Source returns the cleaned absolute form of path, which is the document
// source key for everything ingested from it.
func Source(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	return filepath.Clean(abs), nil
}

// Digest is a short stable digest of a cleaned path.
func Digest(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(hash[:8])
}

// ChunkID returns a fresh id for chunk index of the file at path. The id
// starts with the path digest, so ids from one file share a prefix.
func ChunkID(path string, index int) string {
	return fmt.Sprintf("%s%s_%d_%s", prefix, Digest(path), index, uuid.NewString()[:8])
}

// BelongsTo reports whether id was produced by ChunkID for path.
func BelongsTo(id, path string) bool {
	return strings.HasPrefix(id, prefix+Digest(path)+"_")
}
