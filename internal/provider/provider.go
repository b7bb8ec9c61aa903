package provider

import (
	"context"

	"ct-scan-inspector/internal/payload"
)

// Provider is the remote vision capability the analysis stages call.
// Implementations report transport and API failures as provider errors
// and never retry on their own.
type Provider interface {
	// Classify answers a short question about the image.
	Classify(ctx context.Context, img payload.ImagePayload, instruction string) (string, error)

	// TransformImage asks for a new image derived from img. A response
	// without an inline image part yields a nil payload and a nil error.
	TransformImage(ctx context.Context, img payload.ImagePayload, instruction string) (*payload.ImagePayload, error)

	// GenerateText asks for free-form text about the image.
	GenerateText(ctx context.Context, img payload.ImagePayload, instruction string) (string, error)

	// Close releases the underlying client
	Close() error
}
