package healing

import (
	"context"
	"locator-healer/internal/entity"
	"locator-healer/internal/ports"
	"locator-healer/pkg/logg"
	"locator-healer/pkg/tracing"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	matcherName   = "ElementMatcher"
	matcherTracer = "healing.matcher"
)

// Matcher re-locates a fingerprinted element against the live document:
// candidate locators in priority order first, then a full similarity scan.
type Matcher struct {
	querier   ports.DocumentQuerier
	logger    *zap.Logger
	tracer    trace.Tracer
	threshold float64
}

func NewMatcher(querier ports.DocumentQuerier, threshold float64, logger *zap.Logger) *Matcher {
	return &Matcher{
		querier:   querier,
		logger:    logger.With(zap.String(logg.Layer, matcherName)),
		tracer:    otel.Tracer(matcherTracer),
		threshold: threshold,
	}
}

// Match walks the fingerprint's strategies in stored priority order. A unique
// structural match is accepted at the strategy's static confidence without
// scoring. A multi-match is disambiguated by attribute similarity and accepted
// when the best score clears the threshold, still attributed to the strategy
// kind. When no strategy yields an acceptable result, Match falls back to
// scoring every same-tag element. The returned result never carries an
// accepted candidate below the threshold except via the uniqueness path.
func (m *Matcher) Match(ctx context.Context, fp entity.ElementFingerprint) (res entity.MatchResult, err error) {
	const op = "Match"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Element, fp.Name))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op,
		attribute.String("element", fp.Name),
		attribute.Int("strategies", len(fp.Strategies)))
	defer func() {
		step.End(err)
	}()

	for _, strategy := range fp.Strategies {
		candidates, qerr := m.querier.QueryAll(ctx, strategy.Selector)
		if qerr != nil {
			// Malformed or unsupported selector: skip, never fatal.
			logger.Debug("strategy query failed, skipping",
				zap.String(logg.Strategy, string(strategy.Kind)),
				zap.String(logg.Selector, strategy.Selector),
				zap.Error(qerr))
			step.AddEvent("strategy skipped", attribute.String("kind", string(strategy.Kind)))

			continue
		}

		switch {
		case len(candidates) == 0:
			continue

		case len(candidates) == 1:
			candidate := candidates[0]
			step.AddEvent("unique structural match", attribute.String("kind", string(strategy.Kind)))

			return entity.MatchResult{
				Candidate:      &candidate,
				MatchedLocator: strategy.Selector,
				Confidence:     strategy.Confidence,
				MatchedBy:      entity.MatchedBy(strategy.Kind),
			}, nil

		default:
			best, score := bestBySimilarity(fp.Attributes, candidates)
			if score >= m.threshold {
				step.AddEvent("multi-match disambiguated",
					attribute.String("kind", string(strategy.Kind)),
					attribute.Float64("score", score))

				return entity.MatchResult{
					Candidate:      best,
					MatchedLocator: strategy.Selector,
					Confidence:     score,
					MatchedBy:      entity.MatchedBy(strategy.Kind),
				}, nil
			}

			logger.Debug("ambiguous strategy below threshold",
				zap.String(logg.Strategy, string(strategy.Kind)),
				zap.Int("matches", len(candidates)),
				zap.Float64("score", score))
		}
	}

	return m.similarityScan(ctx, step, logger, fp)
}

// similarityScan scores every element sharing the fingerprint's tag name.
func (m *Matcher) similarityScan(ctx context.Context, step *tracing.Span, logger *zap.Logger, fp entity.ElementFingerprint) (entity.MatchResult, error) {
	tag := strings.TrimSpace(fp.Attributes.Tag)
	if tag == "" {
		logger.Warn("fingerprint has no tag name, similarity scan impossible")

		return entity.MatchResult{MatchedBy: entity.MatchedBySimilarity}, nil
	}

	step.AddEvent("similarity scan", attribute.String("tag", tag))

	candidates, err := m.querier.QueryAll(ctx, tag)
	if err != nil || len(candidates) == 0 {
		return entity.MatchResult{MatchedBy: entity.MatchedBySimilarity}, nil
	}

	best, score := bestBySimilarity(fp.Attributes, candidates)
	if score < m.threshold {
		return entity.MatchResult{
			Confidence: score,
			MatchedBy:  entity.MatchedBySimilarity,
		}, nil
	}

	logger.Info("similarity scan recovered element",
		zap.String(logg.Element, fp.Name),
		zap.Float64("score", score))

	return entity.MatchResult{
		Candidate:  best,
		Confidence: score,
		MatchedBy:  entity.MatchedBySimilarity,
	}, nil
}

func bestBySimilarity(target entity.ElementAttributes, candidates []entity.Candidate) (*entity.Candidate, float64) {
	var (
		best  *entity.Candidate
		score float64
	)

	for i := range candidates {
		if s := SimilarityScore(target, candidates[i].Attributes); best == nil || s > score {
			best = &candidates[i]
			score = s
		}
	}

	return best, score
}
