package session

import (
	"context"

	"github.com/koscakluka/ema-heartcheck/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type metrics struct {
	answers  metric.Int64Counter
	rejected metric.Int64Counter
	skipped  metric.Int64Counter
	sessions metric.Int64Counter
}

func newMetrics() metrics {
	return metrics{
		answers:  counter("heartcheck.answers.recorded", "Answers accepted and written to the record"),
		rejected: counter("heartcheck.answers.rejected", "Transcripts that did not produce a valid answer"),
		skipped:  counter("heartcheck.answers.skipped", "Questions left at their default value"),
		sessions: counter("heartcheck.sessions", "Sessions that reached a final state"),
	}
}

func counter(name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		logger.Warn("failed to create counter", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

func (c *Controller) observe(event events.Event) {
	ctx := context.Background()
	switch event := event.(type) {
	case events.SessionStateChanged:
		logger.Info("session state changed", "session_id", c.id, "from", event.From, "to", event.To)
	case events.AnswerRecorded:
		c.metrics.answers.Add(ctx, 1, metric.WithAttributes(attribute.String("field", event.Field)))
	case events.AnswerRejected:
		logger.Debug("answer rejected", "session_id", c.id, "index", event.Index, "reason", event.Reason, "attempt", event.Attempt)
		c.metrics.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", event.Reason)))
	case events.AnswerSkipped:
		c.metrics.skipped.Add(ctx, 1, metric.WithAttributes(attribute.Bool("flagged", event.Flagged)))
	case events.SessionCompleted:
		c.metrics.sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "completed")))
	case events.SessionFailed:
		logger.Error("session failed", "session_id", c.id, "error", event.Err)
		c.metrics.sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
	}
}
