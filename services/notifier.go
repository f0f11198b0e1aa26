package services

import (
	"context"

	"wedmatch_server/logger"
	"wedmatch_server/metrics"
)

// Notifier wraps a NotificationSink so that delivery failures are logged and dropped. It is
// always called after the engine transaction has committed.
type Notifier struct {
	sink NotificationSink
	log  *logger.Logger
}

func NewNotifier(sink NotificationSink, baseLog *logger.Logger) *Notifier {
	return &Notifier{sink: sink, log: baseLog.With("component", "Notifier")}
}

func (n *Notifier) Emit(ctx context.Context, eventType string, payload map[string]interface{}) {
	if n == nil || n.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			metrics.NotificationFailed(eventType)
			n.log.Error("notification sink panicked", "event", eventType, "panic", r)
		}
	}()
	if err := n.sink.Emit(context.WithoutCancel(ctx), eventType, payload); err != nil {
		metrics.NotificationFailed(eventType)
		n.log.Warn("notification dropped", "event", eventType, "error", err)
	}
}
