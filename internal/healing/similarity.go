package healing

import (
	"locator-healer/internal/entity"
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	weightText        = 0.25
	weightAriaLabel   = 0.20
	weightData        = 0.15
	weightPlaceholder = 0.10
	weightName        = 0.10
	weightClass       = 0.05
	weightPosition    = 0.10
	weightRole        = 0.05

	positionFalloffPx = 200.0
	sizeTolerancePx   = 50.0
)

// StringSimilarity is normalized edit-distance similarity in [0,1].
// Equal non-empty strings score 1; if either side is empty the score is 0.
func StringSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	if a == b {
		return 1
	}

	distance := levenshtein.ComputeDistance(a, b)

	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}

	return 1 - float64(distance)/float64(longer)
}

// SimilarityScore is the weighted attribute similarity between the captured
// target and a live candidate. Weights are renormalized over the signals the
// target actually carries, so missing target attributes never penalize the
// candidate. Returns 0 when no signal is applicable.
func SimilarityScore(target, candidate entity.ElementAttributes) float64 {
	var sum, total float64

	apply := func(weight, score float64) {
		sum += weight * score
		total += weight
	}

	if target.Text != "" {
		apply(weightText, StringSimilarity(target.Text, candidate.Text))
	}

	if target.AriaLabel != "" {
		apply(weightAriaLabel, exactMatch(target.AriaLabel, candidate.AriaLabel))
	}

	if len(target.Data) > 0 {
		apply(weightData, dataOverlap(target.Data, candidate.Data))
	}

	if target.Placeholder != "" {
		apply(weightPlaceholder, exactMatch(target.Placeholder, candidate.Placeholder))
	}

	if target.Name != "" {
		apply(weightName, exactMatch(target.Name, candidate.Name))
	}

	if targetClasses := strings.Fields(target.Class); len(targetClasses) > 0 {
		apply(weightClass, classOverlap(targetClasses, candidate.Class))
	}

	if target.Box.Width > 0 || target.Box.Height > 0 {
		apply(weightPosition, positionScore(target.Box, candidate.Box))
	}

	if target.Role != "" {
		apply(weightRole, exactMatch(target.Role, candidate.Role))
	}

	if total == 0 {
		return 0
	}

	return sum / total
}

func exactMatch(target, candidate string) float64 {
	if target == candidate {
		return 1
	}

	return 0
}

// dataOverlap is the fraction of the target's data-* pairs matched exactly.
func dataOverlap(target, candidate map[string]string) float64 {
	matched := 0

	for key, value := range target {
		if candidate[key] == value {
			matched++
		}
	}

	return float64(matched) / float64(len(target))
}

// classOverlap is |target ∩ candidate| over |target|.
func classOverlap(targetClasses []string, candidateClass string) float64 {
	candidateSet := make(map[string]struct{})
	for _, token := range strings.Fields(candidateClass) {
		candidateSet[token] = struct{}{}
	}

	matched := 0

	for _, token := range targetClasses {
		if _, ok := candidateSet[token]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(targetClasses))
}

// positionScore combines proximity (linear falloff to 0 at 200px) and a
// binary size match (both deltas under 50px), half weight each.
func positionScore(target, candidate entity.BoundingBox) float64 {
	dx := target.X - candidate.X
	dy := target.Y - candidate.Y
	distance := math.Sqrt(dx*dx + dy*dy)

	proximity := 1 - distance/positionFalloffPx
	if proximity < 0 {
		proximity = 0
	}

	size := 0.0
	if math.Abs(target.Width-candidate.Width) < sizeTolerancePx &&
		math.Abs(target.Height-candidate.Height) < sizeTolerancePx {
		size = 1
	}

	return 0.5*proximity + 0.5*size
}
