// Package pipeline runs a CT scan through quality assessment, conditional
// correction and diagnosis.
package pipeline

import (
	"context"
	"time"

	"ct-scan-inspector/internal/observer"
	"ct-scan-inspector/internal/payload"
	"ct-scan-inspector/internal/provider"
	"ct-scan-inspector/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Progress statuses, emitted in this order.
const (
	StatusAssessingQuality = "Analyzing image quality..."
	StatusCorrecting       = "Image is blurry. Applying correction..."
	StatusDiagnosing       = "Performing diagnostic analysis..."
	StatusComplete         = "Analysis complete."
)

// Notifier receives progress statuses. It is called synchronously from the
// run goroutine.
type Notifier func(status string)

type runIDKey struct{}

// WithRunID attaches a run identifier used in logs and events.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run identifier set by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// Pipeline is safe for concurrent use; per-run state lives in Run.
type Pipeline struct {
	quality    *QualityStage
	correction *CorrectionStage
	diagnostic *DiagnosticStage
	events     observer.Subject
	log        *logrus.Logger
}

// New builds a pipeline over p. events may be nil.
func New(p provider.Provider, log *logrus.Logger, events observer.Subject) *Pipeline {
	return &Pipeline{
		quality:    NewQualityStage(p, log),
		correction: NewCorrectionStage(p),
		diagnostic: NewDiagnosticStage(p, log),
		events:     events,
		log:        log,
	}
}

// run holds the state threaded through the steps of one Run call
type run struct {
	input     string
	image     payload.ImagePayload
	verdict   QualityVerdict
	corrected *payload.ImagePayload
	diagnosis string
}

// diagnosable is the corrected image when one was produced, else the input
func (r *run) diagnosable() payload.ImagePayload {
	if r.corrected != nil {
		return *r.corrected
	}
	return r.image
}

type step struct {
	name   string
	status string
	skip   func(*run) bool
	exec   func(context.Context, *run) error
}

func (p *Pipeline) steps() []step {
	return []step{
		{
			name: "parse",
			exec: func(_ context.Context, r *run) error {
				img, err := payload.Parse(r.input)
				r.image = img
				return err
			},
		},
		{
			name:   "assess_quality",
			status: StatusAssessingQuality,
			exec: func(ctx context.Context, r *run) error {
				v, err := p.quality.Assess(ctx, r.image)
				r.verdict = v
				return err
			},
		},
		{
			name:   "correct",
			status: StatusCorrecting,
			skip:   func(r *run) bool { return !r.verdict.Blurry },
			exec: func(ctx context.Context, r *run) error {
				img, err := p.correction.Correct(ctx, r.image)
				if err != nil {
					return err
				}
				r.corrected = &img
				return nil
			},
		},
		{
			name:   "diagnose",
			status: StatusDiagnosing,
			exec: func(ctx context.Context, r *run) error {
				text, err := p.diagnostic.Diagnose(ctx, r.diagnosable())
				r.diagnosis = text
				return err
			},
		},
	}
}

// Run analyzes one data-URI image. Statuses are sent to notify before each
// stage that runs and once more on success. The first stage error is
// returned unchanged and no partial result is produced. A corrected image,
// when produced, is the one diagnosed.
func (p *Pipeline) Run(ctx context.Context, input string, notify Notifier) (*models.AnalysisResult, error) {
	if notify == nil {
		notify = func(string) {}
	}
	runID, ok := RunIDFromContext(ctx)
	if !ok {
		runID = uuid.New().String()
		ctx = WithRunID(ctx, runID)
	}
	log := p.log.WithField("run_id", runID)
	start := time.Now()

	p.publish(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, RunID: runID})

	r := &run{input: input}
	for _, s := range p.steps() {
		if s.skip != nil && s.skip(r) {
			log.WithField("stage", s.name).Debug("Stage skipped")
			continue
		}
		if s.status != "" {
			notify(s.status)
		}
		stageStart := time.Now()
		if err := s.exec(ctx, r); err != nil {
			log.WithError(err).WithField("stage", s.name).Error("Analysis stage failed")
			p.publish(ctx, observer.AnalysisEvent{
				EventType:      observer.AnalysisFailed,
				RunID:          runID,
				ProcessingTime: time.Since(start),
				ErrorMessage:   err.Error(),
				Metadata:       map[string]interface{}{"stage": s.name},
			})
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"stage":    s.name,
			"duration": time.Since(stageStart).String(),
		}).Debug("Stage finished")
		p.afterStep(ctx, runID, s.name, r)
	}

	notify(StatusComplete)

	result := &models.AnalysisResult{
		IsBlurry:  r.verdict.Blurry,
		Diagnosis: r.diagnosis,
	}
	if r.corrected != nil {
		uri := r.corrected.DataURI()
		result.CorrectedImage = &uri
	}

	p.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		RunID:          runID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"is_blurry": result.IsBlurry},
	})
	return result, nil
}

func (p *Pipeline) afterStep(ctx context.Context, runID, name string, r *run) {
	switch {
	case name == "assess_quality" && r.verdict.Ambiguous:
		p.publish(ctx, observer.AnalysisEvent{
			EventType: observer.QualityAmbiguous,
			RunID:     runID,
			Metadata:  map[string]interface{}{"answer": r.verdict.Answer},
		})
	case name == "correct" && r.corrected != nil:
		p.publish(ctx, observer.AnalysisEvent{
			EventType: observer.CorrectionApplied,
			RunID:     runID,
			Success:   true,
			Metadata:  map[string]interface{}{"media_type": r.corrected.MediaType},
		})
	}
}

func (p *Pipeline) publish(ctx context.Context, event observer.AnalysisEvent) {
	if p.events == nil {
		return
	}
	p.events.NotifyObservers(ctx, event)
}
