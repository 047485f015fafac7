// Package storage holds what the content store drivers share.
package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const keyPrefix = "photos/"

// NewObjectKey returns a fresh key that keeps only the extension of the client's filename.
func NewObjectKey(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalFilename)))
	if len(ext) > 10 || strings.ContainsAny(ext, " /\\?#%") {
		ext = ""
	}
	return fmt.Sprintf("%s%s%s", keyPrefix, uuid.NewString(), ext)
}

// ObjectURL joins a base URL and a key without doubling slashes.
func ObjectURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
