// Package observer fans analysis lifecycle events out to logging and
// metrics subscribers.
package observer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType names a point in the life of an analysis run
type EventType string

const (
	// AnalysisStarted when a pipeline run begins
	AnalysisStarted EventType = "analysis_started"
	// QualityAmbiguous when the quality answer was neither YES nor NO
	QualityAmbiguous EventType = "quality_ambiguous"
	// CorrectionApplied when a corrected image was produced
	CorrectionApplied EventType = "correction_applied"
	// AnalysisCompleted when a run produced a result
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when a run ended with an error
	AnalysisFailed EventType = "analysis_failed"
	// ImageFetched when a remote image is downloaded
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when a remote image could not be downloaded
	ImageFetchFailed EventType = "image_fetch_failed"
)

// AnalysisEvent is published by the pipeline and the image repository.
// RunID ties every event of one scan together.
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RunID          string                 `json:"run_id"`
	Source         string                 `json:"source,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Stage returns the pipeline stage recorded in Metadata, if any
func (e AnalysisEvent) Stage() string {
	s, _ := e.Metadata["stage"].(string)
	return s
}

// eventSpec describes how each event type is logged
type eventSpec struct {
	level   logrus.Level
	message string
}

var eventSpecs = map[EventType]eventSpec{
	AnalysisStarted:   {logrus.InfoLevel, "CT scan analysis started"},
	QualityAmbiguous:  {logrus.WarnLevel, "Quality assessment answer was ambiguous"},
	CorrectionApplied: {logrus.InfoLevel, "Image correction applied"},
	AnalysisCompleted: {logrus.InfoLevel, "CT scan analysis completed"},
	AnalysisFailed:    {logrus.ErrorLevel, "CT scan analysis failed"},
	ImageFetched:      {logrus.DebugLevel, "Image fetched"},
	ImageFetchFailed:  {logrus.ErrorLevel, "Image fetch failed"},
}

func specFor(t EventType) eventSpec {
	if s, ok := eventSpecs[t]; ok {
		return s
	}
	return eventSpec{logrus.InfoLevel, "Analysis event occurred"}
}

// Observer receives published events
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject is implemented by event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}
