package usecase

import (
	"context"
	"errors"
	"fmt"
	"locator-healer/internal/config"
	"locator-healer/internal/entity"
	"locator-healer/internal/healing"
	"locator-healer/internal/ports"
	"locator-healer/pkg/apperr"
	"locator-healer/pkg/logg"
	"locator-healer/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	healerServiceName = "HealerService"
	healerTracer      = "usecase.healer"
)

// HealerService is the orchestrator: it tries the primary locator first and,
// on failure or non-uniqueness, drives the matcher over the stored
// fingerprint, records the outcome, and raises a typed failure when
// confidence is insufficient.
type HealerService struct {
	config  *config.Config
	logger  *zap.Logger
	tracer  trace.Tracer
	browser ports.BrowserManager
	store   *healing.Store
	matcher *healing.Matcher
	clock   ports.Clock
}

type HealerServiceParams struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Browser ports.BrowserManager
	Store   *healing.Store
	Clock   ports.Clock
}

func NewHealerService(params HealerServiceParams) *HealerService {
	return &HealerService{
		config:  params.Config,
		logger:  params.Logger.With(zap.String(logg.Layer, healerServiceName)),
		tracer:  otel.Tracer(healerTracer),
		browser: params.Browser,
		store:   params.Store,
		matcher: healing.NewMatcher(params.Browser, params.Config.HealingConfig.ConfidenceThreshold, params.Logger),
		clock:   params.Clock,
	}
}

// Register unconditionally captures and stores a fingerprint from a
// known-good locator, independent of any prior healing history.
func (s *HealerService) Register(ctx context.Context, locator, name string, exec entity.ExecutionContext) (resp *entity.Resolution, err error) {
	const op = "Register"
	logger := s.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.Element, name),
		zap.String(logg.Selector, locator))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("element", name),
		attribute.String("selector", locator))
	defer func() {
		step.End(err)
	}()

	if name == "" {
		return nil, apperr.InvalidReqError(op, "name", errors.New("element name cannot be empty"))
	}

	if locator == "" {
		return nil, apperr.InvalidReqError(op, "locator", errors.New("locator cannot be empty"))
	}

	candidates, err := s.browser.QueryAll(ctx, locator)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason:   "primary_query_failed",
			apperr.MetaStage:    apperr.StageCapture,
			apperr.MetaElement:  name,
			apperr.MetaSelector: locator,
		})
	}

	if len(candidates) == 0 {
		return nil, apperr.Wrap(op, apperr.CodeNotFound,
			fmt.Errorf("locator %q matched no elements", locator), map[string]any{
				apperr.MetaReason:   "no_match",
				apperr.MetaStage:    apperr.StageCapture,
				apperr.MetaElement:  name,
				apperr.MetaSelector: locator,
			})
	}

	if len(candidates) > 1 {
		logger.Warn("locator is not unique, fingerprinting first match",
			zap.Int("matches", len(candidates)))
	}

	element := candidates[0]
	s.saveFingerprint(element.Attributes, name, locator)
	step.AddEvent("fingerprint registered")

	return &entity.Resolution{
		Element:    element,
		Confidence: 1,
		MatchedBy:  entity.MatchedByDirect,
	}, nil
}

// Heal resolves an element: primary locator first, healing on failure.
func (s *HealerService) Heal(ctx context.Context, locator, name string, exec entity.ExecutionContext) (resp *entity.Resolution, err error) {
	const op = "Heal"
	logger := s.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.Element, name),
		zap.String(logg.Selector, locator))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("element", name),
		attribute.String("selector", locator))
	defer func() {
		step.End(err)
	}()

	candidates, qerr := s.browser.QueryAll(ctx, locator)
	if qerr != nil {
		logger.Debug("primary locator query failed", zap.Error(qerr))
		candidates = nil
	}

	if len(candidates) == 1 {
		element := candidates[0]
		s.saveFingerprint(element.Attributes, name, locator)
		step.AddEvent("resolved directly")

		return &entity.Resolution{
			Element:    element,
			Confidence: 1,
			MatchedBy:  entity.MatchedByDirect,
		}, nil
	}

	if !s.config.HealingConfig.Enabled {
		return nil, apperr.Wrap(op, apperr.CodeNotFoundNoHeal,
			fmt.Errorf("locator %q matched %d elements and healing is disabled", locator, len(candidates)),
			map[string]any{
				apperr.MetaReason:   "healing_disabled",
				apperr.MetaStage:    apperr.StageMatching,
				apperr.MetaElement:  name,
				apperr.MetaSelector: locator,
			})
	}

	fingerprint, ok := s.store.Get(name)
	if !ok {
		return nil, apperr.Wrap(op, apperr.CodeNoFingerprint,
			fmt.Errorf("no fingerprint stored for element %q, failed locator %q", name, locator),
			map[string]any{
				apperr.MetaReason:   "no_fingerprint",
				apperr.MetaStage:    apperr.StageMatching,
				apperr.MetaElement:  name,
				apperr.MetaSelector: locator,
			})
	}

	step.AddEvent("attempting heal", attribute.Int("strategies", len(fingerprint.Strategies)))

	result, err := s.matcher.Match(ctx, fingerprint)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:  "matcher_failed",
			apperr.MetaStage:   apperr.StageMatching,
			apperr.MetaElement: name,
		})
	}

	threshold := s.config.HealingConfig.ConfidenceThreshold

	if result.Candidate == nil {
		return nil, apperr.Wrap(op, apperr.CodeLowConfidence,
			fmt.Errorf("healing confidence %.2f below required %.2f for element %q",
				result.Confidence, threshold, name),
			map[string]any{
				apperr.MetaReason:     "low_confidence",
				apperr.MetaStage:      apperr.StageMatching,
				apperr.MetaElement:    name,
				apperr.MetaSelector:   locator,
				apperr.MetaConfidence: result.Confidence,
				apperr.MetaThreshold:  threshold,
			})
	}

	healedLocator := result.MatchedLocator
	if healedLocator == "" {
		healedLocator = entity.SimilarityMatchLocator
	}

	event := entity.HealingEvent{
		ID:            uuid.New(),
		Timestamp:     s.clock.Now(),
		ElementName:   name,
		FailedLocator: locator,
		HealedLocator: healedLocator,
		Strategy:      result.MatchedBy,
		Confidence:    result.Confidence,
		TestFile:      exec.TestFile,
		TestName:      exec.TestName,
	}
	s.store.RecordEvent(event)

	logger.Info("element healed",
		zap.String("failed_locator", locator),
		zap.String("healed_locator", healedLocator),
		zap.String(logg.Strategy, string(result.MatchedBy)),
		zap.Float64("confidence", result.Confidence),
		zap.String(logg.TestFile, exec.TestFile),
		zap.String(logg.TestName, exec.TestName))

	step.AddEvent("healed",
		attribute.String("strategy", string(result.MatchedBy)),
		attribute.Float64("confidence", result.Confidence))

	return &entity.Resolution{
		Element:    *result.Candidate,
		Healed:     true,
		Confidence: result.Confidence,
		MatchedBy:  result.MatchedBy,
	}, nil
}

// saveFingerprint re-captures the fingerprint while preserving the heal count
// accumulated so far; only RecordEvent ever increments it.
func (s *HealerService) saveFingerprint(attrs entity.ElementAttributes, name, locator string) {
	fingerprint := healing.CaptureFingerprint(attrs, name, locator, s.clock.Now())

	if previous, ok := s.store.Get(name); ok {
		fingerprint.HealCount = previous.HealCount
	}

	s.store.Save(fingerprint)
}
