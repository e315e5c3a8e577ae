// Package attachment stores complaint evidence files (warranty proof and
// purchase receipt) and hands back the reference kept on the complaint.
package attachment

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmpty       = errors.New("attachment is empty")
	ErrTooLarge    = errors.New("attachment is too large")
	ErrUnsupported = errors.New("attachment type is not supported")
)

var allowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"application/pdf",
}

// Inspect sniffs the content type and checks it against the accepted set.
// maxBytes <= 0 disables the size check.
func Inspect(content []byte, maxBytes int64) (string, error) {
	if len(content) == 0 {
		return "", ErrEmpty
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(content), maxBytes)
	}

	detected := mimetype.Detect(content)
	for _, allowed := range allowedTypes {
		if detected.Is(allowed) {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, detected.String())
}

// Extension returns the canonical file extension for an accepted type.
func Extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
