package pipeline

import (
	"context"

	apperrors "ct-scan-inspector/internal/errors"
	"ct-scan-inspector/internal/payload"
	"ct-scan-inspector/internal/provider"
)

// CorrectionStage asks the provider for a de-blurred version of the image.
type CorrectionStage struct {
	provider provider.Provider
}

func NewCorrectionStage(p provider.Provider) *CorrectionStage {
	return &CorrectionStage{provider: p}
}

// Correct returns the corrected image. A response without an image part is
// a CorrectionFailedError; the original is never handed back in its place.
func (s *CorrectionStage) Correct(ctx context.Context, img payload.ImagePayload) (payload.ImagePayload, error) {
	corrected, err := s.provider.TransformImage(ctx, img, CorrectionInstruction)
	if err != nil {
		return payload.ImagePayload{}, err
	}
	if corrected == nil || corrected.EncodedData == "" || corrected.MediaType == "" {
		return payload.ImagePayload{}, apperrors.NewCorrectionFailedError("provider response contained no inline image")
	}
	return *corrected, nil
}
