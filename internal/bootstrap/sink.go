package bootstrap

import (
	"locator-healer/internal/entity"
	"locator-healer/pkg/logg"

	"go.uber.org/zap"
)

// zapEventSink is the default telemetry collaborator: every recorded healing
// event is logged the moment the store accepts it.
type zapEventSink struct {
	logger *zap.Logger
}

func newEventSink(logger *zap.Logger) *zapEventSink {
	return &zapEventSink{
		logger: logger.With(zap.String(logg.Layer, "EventSink")),
	}
}

func (s *zapEventSink) Offer(event entity.HealingEvent) {
	s.logger.Info("healing event recorded",
		zap.String(logg.Element, event.ElementName),
		zap.String("failed_locator", event.FailedLocator),
		zap.String("healed_locator", event.HealedLocator),
		zap.String(logg.Strategy, string(event.Strategy)),
		zap.Float64("confidence", event.Confidence))
}
