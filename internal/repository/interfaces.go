package repository

import (
	"context"

	"ct-scan-inspector/pkg/models"
)

// ImageSource names where a scan comes from. Exactly one field is set.
type ImageSource struct {
	// DataURI is passed to the pipeline verbatim
	DataURI string
	URL     string
}

// ImageRepository turns an ImageSource into the data URI the pipeline parses.
type ImageRepository interface {
	// ResolveImage returns the data URI and, for remote sources, metadata
	// about the download. Inline images return nil metadata.
	ResolveImage(ctx context.Context, source ImageSource) (string, *models.ImageMetadata, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}
