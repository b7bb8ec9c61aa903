package storage

import (
	"context"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Image is a downloaded image before it is wrapped in a data URI
type Image struct {
	Data        []byte
	ContentType string
	Source      string
}

// ImageFetcher downloads an image from a remote location.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (*Image, error)
}

// DetectContentType trusts an image/* header value and otherwise sniffs data.
func DetectContentType(header string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	return mimetype.Detect(data).String()
}

// IsImage reports whether a detected content type is an image type
func IsImage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
