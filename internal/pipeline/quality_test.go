package pipeline

import (
	"context"
	"errors"
	"testing"

	apperrors "ct-scan-inspector/internal/errors"
	"ct-scan-inspector/internal/payload"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var sampleImage = payload.ImagePayload{MediaType: "image/png", EncodedData: "AAA"}

func TestQualityStage_Assess(t *testing.T) {
	tests := []struct {
		answer    string
		blurry    bool
		ambiguous bool
	}{
		{answer: "YES", blurry: true},
		{answer: "yes", blurry: true},
		{answer: "  Yes\n", blurry: true},
		{answer: "NO", blurry: false},
		{answer: "no.", blurry: false, ambiguous: true},
		{answer: "MAYBE", blurry: false, ambiguous: true},
		{answer: "", blurry: false, ambiguous: true},
		{answer: "Yes, it is blurry", blurry: false, ambiguous: true},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			stage := NewQualityStage(&fakeProvider{classifyAnswer: tt.answer}, log)

			verdict, err := stage.Assess(context.Background(), sampleImage)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if verdict.Blurry != tt.blurry {
				t.Errorf("Expected blurry=%v, got %v", tt.blurry, verdict.Blurry)
			}
			if verdict.Ambiguous != tt.ambiguous {
				t.Errorf("Expected ambiguous=%v, got %v", tt.ambiguous, verdict.Ambiguous)
			}

			warned := false
			for _, e := range hook.AllEntries() {
				if e.Level == logrus.WarnLevel && e.Message == "Unexpected response from blur detection, assuming not blurry" {
					warned = true
				}
			}
			if warned != tt.ambiguous {
				t.Errorf("Expected warning logged=%v, got %v", tt.ambiguous, warned)
			}
		})
	}
}

func TestQualityStage_ProviderError(t *testing.T) {
	providerErr := apperrors.NewProviderError(errors.New("service unavailable"), 503)
	stage := NewQualityStage(&fakeProvider{classifyErr: providerErr}, quietLogger())

	_, err := stage.Assess(context.Background(), sampleImage)
	if err != providerErr {
		t.Errorf("Expected provider error unchanged, got %v", err)
	}
}

func TestCorrectionStage_Correct(t *testing.T) {
	tests := []struct {
		name      string
		corrected *payload.ImagePayload
		expectErr bool
	}{
		{name: "image returned", corrected: &payload.ImagePayload{MediaType: "image/png", EncodedData: "BBB"}},
		{name: "no image part", corrected: nil, expectErr: true},
		{name: "empty data", corrected: &payload.ImagePayload{MediaType: "image/png"}, expectErr: true},
		{name: "missing media type", corrected: &payload.ImagePayload{EncodedData: "BBB"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := NewCorrectionStage(&fakeProvider{corrected: tt.corrected})

			got, err := stage.Correct(context.Background(), sampleImage)
			if tt.expectErr {
				if !apperrors.IsType(err, apperrors.ErrorTypeCorrectionFailed) {
					t.Errorf("Expected correction failed error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != *tt.corrected {
				t.Errorf("Expected %+v, got %+v", *tt.corrected, got)
			}
		})
	}
}
