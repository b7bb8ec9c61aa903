package service

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	apperrors "ct-scan-inspector/internal/errors"
	"ct-scan-inspector/internal/pipeline"
	"ct-scan-inspector/internal/repository"
	"ct-scan-inspector/pkg/models"

	"github.com/sirupsen/logrus"
)

type stubRepository struct {
	uri    string
	meta   *models.ImageMetadata
	err    error
	source repository.ImageSource
}

func (s *stubRepository) ResolveImage(ctx context.Context, source repository.ImageSource) (string, *models.ImageMetadata, error) {
	s.source = source
	return s.uri, s.meta, s.err
}

func (s *stubRepository) ValidateImageURL(string) error { return nil }

type stubRunner struct {
	statuses []string
	result   *models.AnalysisResult
	err      error
	input    string
	runID    string
}

func (s *stubRunner) Run(ctx context.Context, input string, notify pipeline.Notifier) (*models.AnalysisResult, error) {
	s.input = input
	s.runID, _ = pipeline.RunIDFromContext(ctx)
	for _, st := range s.statuses {
		notify(st)
	}
	return s.result, s.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestAnalyze_Success(t *testing.T) {
	repo := &stubRepository{uri: "data:image/png;base64,AAA"}
	runner := &stubRunner{
		statuses: []string{pipeline.StatusAssessingQuality, pipeline.StatusDiagnosing, pipeline.StatusComplete},
		result:   &models.AnalysisResult{Diagnosis: "report"},
	}
	svc := NewScanAnalysisService(repo, runner, quietLogger())

	var forwarded []string
	resp, err := svc.Analyze(context.Background(), models.AnalysisRequest{Image: "data:image/png;base64,AAA"}, func(s string) {
		forwarded = append(forwarded, s)
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Diagnosis != "report" {
		t.Errorf("Expected diagnosis 'report', got %q", resp.Diagnosis)
	}
	if resp.RunID == "" || resp.RunID != runner.runID {
		t.Errorf("Expected run id %q to match pipeline run id %q", resp.RunID, runner.runID)
	}
	if !reflect.DeepEqual(resp.Statuses, runner.statuses) {
		t.Errorf("Expected statuses %v, got %v", runner.statuses, resp.Statuses)
	}
	if !reflect.DeepEqual(forwarded, runner.statuses) {
		t.Errorf("Expected statuses forwarded to caller, got %v", forwarded)
	}
	if runner.input != repo.uri {
		t.Errorf("Expected pipeline input %q, got %q", repo.uri, runner.input)
	}
	if repo.source.DataURI != "data:image/png;base64,AAA" {
		t.Errorf("Expected inline image passed to repository, got %+v", repo.source)
	}
}

func TestAnalyze_KeepsRunIDFromContext(t *testing.T) {
	runner := &stubRunner{result: &models.AnalysisResult{}}
	svc := NewScanAnalysisService(&stubRepository{uri: "x"}, runner, quietLogger())

	ctx := pipeline.WithRunID(context.Background(), "req-1")
	resp, err := svc.Analyze(ctx, models.AnalysisRequest{Image: "x"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.RunID != "req-1" || runner.runID != "req-1" {
		t.Errorf("Expected run id req-1, got response=%q pipeline=%q", resp.RunID, runner.runID)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name         string
		repo         *stubRepository
		runner       *stubRunner
		expectedType apperrors.ErrorType
		expectedMsg  string
	}{
		{
			name:         "repository failure",
			repo:         &stubRepository{err: apperrors.NewNetworkError("Failed to fetch image", errors.New("404"))},
			runner:       &stubRunner{},
			expectedType: apperrors.ErrorTypeNetwork,
		},
		{
			name:         "malformed input",
			repo:         &stubRepository{uri: "bad"},
			runner:       &stubRunner{err: apperrors.NewMalformedInputError("missing data: prefix")},
			expectedType: apperrors.ErrorTypeMalformedInput,
			expectedMsg:  "invalid base64 string format",
		},
		{
			name:         "deadline",
			repo:         &stubRepository{uri: "x"},
			runner:       &stubRunner{err: context.DeadlineExceeded},
			expectedType: apperrors.ErrorTypeTimeout,
		},
		{
			name:         "unknown failure",
			repo:         &stubRepository{uri: "x"},
			runner:       &stubRunner{err: errors.New("boom")},
			expectedType: apperrors.ErrorTypeInternal,
			expectedMsg:  apperrors.UnknownErrorMessage + ": boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewScanAnalysisService(tt.repo, tt.runner, quietLogger())

			resp, err := svc.Analyze(context.Background(), models.AnalysisRequest{Image: "x"}, nil)
			if resp != nil {
				t.Errorf("Expected no response, got %+v", resp)
			}
			if !apperrors.IsType(err, tt.expectedType) {
				t.Fatalf("Expected %s error, got %v", tt.expectedType, err)
			}
			if tt.expectedMsg != "" && err.Error() != tt.expectedMsg {
				t.Errorf("Expected message %q, got %q", tt.expectedMsg, err.Error())
			}
		})
	}
}
