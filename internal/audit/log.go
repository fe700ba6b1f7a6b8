package audit

import (
	"context"

	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

// LogSink writes events to the application log.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink() *LogSink {
	return &LogSink{logger: log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Audit"))}
}

func (s *LogSink) RecordRequest(ctx context.Context, eventType EventType, payload interface{}) {
	event := NewEvent(ctx, eventType, payload)
	s.logger.Info("Audit event",
		log.String("eventType", string(event.EventType)),
		log.String("requestId", event.RequestID),
		log.String("tppId", event.TppID),
		log.String("payload", string(event.Payload)))
}
