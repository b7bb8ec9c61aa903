package service

import (
	"context"
	"sync"
	"time"

	apperrors "ct-scan-inspector/internal/errors"
	"ct-scan-inspector/internal/pipeline"
	"ct-scan-inspector/internal/repository"
	"ct-scan-inspector/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ScanAnalysisService defines the interface for analysing a CT scan request
type ScanAnalysisService interface {
	// Analyze resolves the request image and runs it through the pipeline.
	// notify may be nil. Errors are always *errors.AppError.
	Analyze(ctx context.Context, req models.AnalysisRequest, notify pipeline.Notifier) (*models.AnalysisResponse, error)
}

// Runner is the pipeline entry point
type Runner interface {
	Run(ctx context.Context, input string, notify pipeline.Notifier) (*models.AnalysisResult, error)
}

type scanAnalysisService struct {
	imageRepo repository.ImageRepository
	runner    Runner
	log       *logrus.Logger
}

// NewScanAnalysisService creates a new scan analysis service
func NewScanAnalysisService(imageRepo repository.ImageRepository, runner Runner, log *logrus.Logger) ScanAnalysisService {
	return &scanAnalysisService{
		imageRepo: imageRepo,
		runner:    runner,
		log:       log,
	}
}

func (s *scanAnalysisService) Analyze(ctx context.Context, req models.AnalysisRequest, notify pipeline.Notifier) (*models.AnalysisResponse, error) {
	runID, ok := pipeline.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.New().String()
		ctx = pipeline.WithRunID(ctx, runID)
	}
	start := time.Now()

	input, meta, err := s.imageRepo.ResolveImage(ctx, repository.ImageSource{DataURI: req.Image, URL: req.URL})
	if err != nil {
		return nil, apperrors.Normalize(err)
	}
	if meta != nil {
		s.log.WithFields(logrus.Fields{
			"run_id":         runID,
			"source":         meta.Source,
			"content_type":   meta.ContentType,
			"content_length": meta.ContentLength,
		}).Info("Resolved remote scan image")
	}

	statuses := &statusLog{}
	result, err := s.runner.Run(ctx, input, func(status string) {
		statuses.add(status)
		if notify != nil {
			notify(status)
		}
	})
	if err != nil {
		return nil, apperrors.Normalize(err)
	}

	return &models.AnalysisResponse{
		AnalysisResult:    *result,
		RunID:             runID,
		Statuses:          statuses.list(),
		ProcessingTimeSec: time.Since(start).Seconds(),
	}, nil
}

// statusLog keeps the statuses emitted during one run
type statusLog struct {
	mu    sync.Mutex
	items []string
}

func (l *statusLog) add(status string) {
	l.mu.Lock()
	l.items = append(l.items, status)
	l.mu.Unlock()
}

func (l *statusLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}
