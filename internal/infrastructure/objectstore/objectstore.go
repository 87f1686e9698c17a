// Package objectstore holds the artifact store drivers.
package objectstore

import (
	"fmt"
	"mime"
	"path"

	"github.com/google/uuid"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Extension returns the fixed file extension for an image content type.
func Extension(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("invalid content type %q: %w", contentType, err)
	}
	ext, ok := extensions[mediaType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", mediaType)
	}
	return ext, nil
}

// NewKey returns a fresh object key: a random v4 UUID plus the extension for contentType,
// under prefix when one is given.
func NewKey(prefix, contentType string) (string, error) {
	ext, err := Extension(contentType)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	if prefix == "" {
		return name, nil
	}
	return path.Join(prefix, name), nil
}
