package repository

import "errors"

var (
	// ErrNoImageSource indicates neither an inline image nor a URL was given
	ErrNoImageSource = errors.New("an image data URI or an image URL is required")

	// ErrAmbiguousImageSource indicates both an inline image and a URL were given
	ErrAmbiguousImageSource = errors.New("provide either an image data URI or an image URL, not both")

	// ErrBlobStorageUnavailable indicates a blob URL with no Azure credentials configured
	ErrBlobStorageUnavailable = errors.New("blob storage is not configured")
)
