package notify

import (
	"context"
	"errors"

	"wedmatch_server/logger"
)

// Sink matches services.NotificationSink.
type Sink interface {
	Emit(ctx context.Context, eventType string, payload map[string]interface{}) error
}

// Fanout delivers each event to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Emit(ctx context.Context, eventType string, payload map[string]interface{}) error {
	var errs []error
	for _, s := range f {
		if err := s.Emit(ctx, eventType, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events to the structured log.
type LogSink struct{ log *logger.Logger }

func NewLogSink(baseLog *logger.Logger) *LogSink {
	return &LogSink{log: baseLog.With("component", "events")}
}

func (s *LogSink) Emit(_ context.Context, eventType string, payload map[string]interface{}) error {
	s.log.Info("📣 event", "event", eventType, "recipients", Recipients(eventType, payload))
	return nil
}
