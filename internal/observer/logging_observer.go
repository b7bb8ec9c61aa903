package observer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LoggingObserver writes one log entry per event, at the level its type
// calls for.
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a logging observer on logger
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := make(logrus.Fields, len(event.Metadata)+5)
	for k, v := range event.Metadata {
		fields[k] = v
	}
	fields["event_type"] = event.EventType
	fields["run_id"] = event.RunID
	fields["success"] = event.Success
	if event.ProcessingTime > 0 {
		fields["processing_time"] = event.ProcessingTime.String()
	}
	if event.Source != "" {
		fields["source"] = event.Source
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	spec := specFor(event.EventType)
	o.logger.WithFields(fields).Log(spec.level, spec.message)
}

func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}
