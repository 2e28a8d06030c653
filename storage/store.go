package storage

import (
	"context"
	"path/filepath"
	"strings"
)

// ObjectStore persists immutable blobs and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Ensure S3Store implements ObjectStore
var _ ObjectStore = (*S3Store)(nil)

func contentTypeForImage(extension string) string {
	switch strings.ToLower(filepath.Ext("x" + extension)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
