package pipeline

import (
	"context"
	"errors"
	"strings"

	apperrors "ct-scan-inspector/internal/errors"
	"ct-scan-inspector/internal/payload"
	"ct-scan-inspector/internal/provider"

	"github.com/sirupsen/logrus"
)

var errEmptyDiagnosis = errors.New("diagnostic provider returned an empty response")

// DiagnosticStage requests the structured radiology report.
type DiagnosticStage struct {
	provider provider.Provider
	log      *logrus.Logger
}

func NewDiagnosticStage(p provider.Provider, log *logrus.Logger) *DiagnosticStage {
	return &DiagnosticStage{provider: p, log: log}
}

// Diagnose returns the provider text unmodified. Layout drift is logged,
// not repaired.
func (s *DiagnosticStage) Diagnose(ctx context.Context, img payload.ImagePayload) (string, error) {
	text, err := s.provider.GenerateText(ctx, img, DiagnosticInstruction)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", apperrors.NewProviderError(errEmptyDiagnosis, 0)
	}

	if report := CheckSections(text); !report.Complete() {
		s.log.WithFields(logrus.Fields{
			"stage":        "diagnose",
			"missing":      report.Missing,
			"out_of_order": report.OutOfOrder,
			"found":        report.Found,
		}).Warn("Diagnosis does not follow the expected section layout")
	}
	return text, nil
}
