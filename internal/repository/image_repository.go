package repository

import (
	"context"
	"time"

	apperrors "ct-scan-inspector/internal/errors"
	"ct-scan-inspector/internal/observer"
	"ct-scan-inspector/internal/payload"
	"ct-scan-inspector/internal/pipeline"
	"ct-scan-inspector/internal/storage"
	"ct-scan-inspector/pkg/models"
	"ct-scan-inspector/pkg/validation"
)

// HTTPImageRepository resolves inline images directly and remote images
// through an HTTP fetcher, or a blob fetcher for Azure Blob Storage URLs.
type HTTPImageRepository struct {
	fetcher     storage.ImageFetcher
	blobFetcher storage.ImageFetcher
	validator   *validation.URLValidator
	events      observer.Subject
}

// NewHTTPImageRepository creates an image repository. blobFetcher and events
// may be nil.
func NewHTTPImageRepository(
	fetcher storage.ImageFetcher,
	blobFetcher storage.ImageFetcher,
	validator *validation.URLValidator,
	events observer.Subject,
) *HTTPImageRepository {
	return &HTTPImageRepository{
		fetcher:     fetcher,
		blobFetcher: blobFetcher,
		validator:   validator,
		events:      events,
	}
}

// ResolveImage returns source.DataURI untouched so malformed input reaches
// the parser, or downloads source.URL and encodes it as a data URI.
func (r *HTTPImageRepository) ResolveImage(ctx context.Context, source ImageSource) (string, *models.ImageMetadata, error) {
	switch {
	case source.DataURI != "" && source.URL != "":
		return "", nil, apperrors.NewValidationError(ErrAmbiguousImageSource.Error(), ErrAmbiguousImageSource)
	case source.DataURI != "":
		return source.DataURI, nil, nil
	case source.URL == "":
		return "", nil, apperrors.NewValidationError(ErrNoImageSource.Error(), ErrNoImageSource)
	}

	if err := r.ValidateImageURL(source.URL); err != nil {
		return "", nil, err
	}

	fetcher := r.fetcher
	if storage.IsBlobURL(source.URL) {
		if r.blobFetcher == nil {
			return "", nil, apperrors.NewValidationError(ErrBlobStorageUnavailable.Error(), ErrBlobStorageUnavailable)
		}
		fetcher = r.blobFetcher
	}

	runID, _ := pipeline.RunIDFromContext(ctx)
	start := time.Now()
	img, err := fetcher.FetchImage(ctx, source.URL)
	if err != nil {
		r.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.ImageFetchFailed,
			RunID:          runID,
			Source:         source.URL,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		if ctx.Err() != nil {
			return "", nil, apperrors.NewTimeoutError("Image download timed out", ctx.Err())
		}
		return "", nil, apperrors.NewNetworkError("Failed to fetch image", err)
	}

	r.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		RunID:          runID,
		Source:         source.URL,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"content_type":   img.ContentType,
			"content_length": len(img.Data),
		},
	})

	meta := &models.ImageMetadata{
		ContentType:   img.ContentType,
		ContentLength: int64(len(img.Data)),
		Source:        source.URL,
	}
	return payload.FromBytes(img.ContentType, img.Data).DataURI(), meta, nil
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *HTTPImageRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}

func (r *HTTPImageRepository) publish(ctx context.Context, event observer.AnalysisEvent) {
	if r.events == nil {
		return
	}
	r.events.NotifyObservers(ctx, event)
}
