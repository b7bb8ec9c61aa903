package pipeline

import (
	"context"
	"strings"

	"ct-scan-inspector/internal/payload"
	"ct-scan-inspector/internal/provider"

	"github.com/sirupsen/logrus"
)

// QualityVerdict is the outcome of the quality check
type QualityVerdict struct {
	Blurry bool
	// Answer is the normalised provider answer
	Answer string
	// Ambiguous is set when Answer was neither YES nor NO
	Ambiguous bool
}

// QualityStage asks the provider whether the image has correctable defects.
type QualityStage struct {
	provider provider.Provider
	log      *logrus.Logger
}

func NewQualityStage(p provider.Provider, log *logrus.Logger) *QualityStage {
	return &QualityStage{provider: p, log: log}
}

// Assess never fails on an unexpected answer: it logs a warning and
// reports no defect so correction is not triggered.
func (s *QualityStage) Assess(ctx context.Context, img payload.ImagePayload) (QualityVerdict, error) {
	answer, err := s.provider.Classify(ctx, img, QualityInstruction)
	if err != nil {
		return QualityVerdict{}, err
	}
	return s.verdict(answer), nil
}

func (s *QualityStage) verdict(answer string) QualityVerdict {
	normalized := strings.ToUpper(strings.TrimSpace(answer))
	switch normalized {
	case AnswerDefect:
		return QualityVerdict{Blurry: true, Answer: normalized}
	case AnswerClear:
		return QualityVerdict{Blurry: false, Answer: normalized}
	}

	s.log.WithFields(logrus.Fields{
		"stage":  "assess_quality",
		"answer": normalized,
	}).Warn("Unexpected response from blur detection, assuming not blurry")
	return QualityVerdict{Blurry: false, Answer: normalized, Ambiguous: true}
}
