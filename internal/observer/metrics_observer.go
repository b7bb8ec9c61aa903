package observer

import (
	"context"
	"sync"
	"time"
)

// counterNames maps the counted event types onto their metric keys
var counterNames = map[EventType]string{
	AnalysisStarted:   "total_analyses",
	AnalysisCompleted: "successful_analyses",
	AnalysisFailed:    "failed_analyses",
	CorrectionApplied: "corrected_images",
	QualityAmbiguous:  "ambiguous_verdicts",
	ImageFetchFailed:  "image_fetch_failures",
}

// MetricsObserver keeps in-memory counters for GET /metrics
type MetricsObserver struct {
	mu              sync.RWMutex
	counters        map[string]int64
	failuresByStage map[string]int64
	completedTime   time.Duration
}

// NewMetricsObserver creates an empty metrics observer
func NewMetricsObserver() *MetricsObserver {
	counters := make(map[string]int64, len(counterNames))
	for _, name := range counterNames {
		counters[name] = 0
	}
	return &MetricsObserver{
		counters:        counters,
		failuresByStage: make(map[string]int64),
	}
}

func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	name, counted := counterNames[event.EventType]
	if !counted {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.counters[name]++
	switch event.EventType {
	case AnalysisCompleted:
		o.completedTime += event.ProcessingTime
	case AnalysisFailed:
		if stage := event.Stage(); stage != "" {
			o.failuresByStage[stage]++
		}
	}
}

func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns a snapshot of the counters. Durations are formatted
// strings; the average covers successful runs only.
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make(map[string]interface{}, len(o.counters)+3)
	for name, n := range o.counters {
		out[name] = n
	}

	var avg time.Duration
	if done := o.counters["successful_analyses"]; done > 0 {
		avg = o.completedTime / time.Duration(done)
	}
	out["total_processing_time"] = o.completedTime.String()
	out["avg_processing_time"] = avg.String()

	byStage := make(map[string]int64, len(o.failuresByStage))
	for stage, n := range o.failuresByStage {
		byStage[stage] = n
	}
	out["failures_by_stage"] = byStage
	return out
}
