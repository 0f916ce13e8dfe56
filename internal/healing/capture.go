package healing

import (
	"fmt"
	"locator-healer/internal/entity"
	"sort"
	"strings"
	"time"
)

const maxTextLocatorLength = 50

// strategyRule couples one StrategyKind with its precondition and selector
// builder. The table is ordered by priority; adding a strategy is one new row.
type strategyRule struct {
	kind       entity.StrategyKind
	priority   int
	confidence float64
	build      func(attrs entity.ElementAttributes) (string, bool)
}

var strategyRules = []strategyRule{
	{
		kind: entity.StrategyTestID, priority: 1, confidence: 0.95,
		build: func(attrs entity.ElementAttributes) (string, bool) {
			return dataAttrSelector(attrs, "data-testid")
		},
	},
	{
		kind: entity.StrategyCypressTestID, priority: 2, confidence: 0.95,
		build: func(attrs entity.ElementAttributes) (string, bool) {
			return dataAttrSelector(attrs, "data-cy")
		},
	},
	{
		kind: entity.StrategyID, priority: 3, confidence: 0.90,
		build: func(attrs entity.ElementAttributes) (string, bool) {
			if attrs.ID == "" {
				return "", false
			}

			return "#" + attrs.ID, true
		},
	},
	{
		kind: entity.StrategyAriaLabel, priority: 4, confidence: 0.85,
		build: func(attrs entity.ElementAttributes) (string, bool) {
			return attrSelector("aria-label", attrs.AriaLabel)
		},
	},
	{
		kind: entity.StrategyName, priority: 5, confidence: 0.80,
		build: func(attrs entity.ElementAttributes) (string, bool) {
			return attrSelector("name", attrs.Name)
		},
	},
	{
		kind: entity.StrategyPlaceholder, priority: 6, confidence: 0.75,
		build: func(attrs entity.ElementAttributes) (string, bool) {
			return attrSelector("placeholder", attrs.Placeholder)
		},
	},
	{
		kind: entity.StrategyRole, priority: 7, confidence: 0.70,
		build: func(attrs entity.ElementAttributes) (string, bool) {
			// Both role and visible text must be present at capture time,
			// but the emitted selector encodes only the role.
			if attrs.Role == "" || strings.TrimSpace(attrs.Text) == "" {
				return "", false
			}

			return attrSelector("role", attrs.Role)
		},
	},
	{
		kind: entity.StrategyTextContent, priority: 8, confidence: 0.70,
		build: func(attrs entity.ElementAttributes) (string, bool) {
			text := strings.TrimSpace(attrs.Text)
			if text == "" || len(text) >= maxTextLocatorLength {
				return "", false
			}

			return fmt.Sprintf(`text="%s"`, escapeQuotes(text)), true
		},
	},
	{
		kind: entity.StrategyCSSClass, priority: 9, confidence: 0.50,
		build: func(attrs entity.ElementAttributes) (string, bool) {
			class := strings.TrimSpace(attrs.Class)
			if class == "" || strings.ContainsAny(class, " \t\n") {
				return "", false
			}

			return "." + class, true
		},
	},
	{
		kind: entity.StrategyContextualCSS, priority: 10, confidence: 0.60,
		build: buildContextualCSS,
	},
}

// CaptureFingerprint builds the durable identity of an element from its
// current attributes. Deterministic for a given attribute snapshot; the
// strategy list is computed once here and never re-derived.
func CaptureFingerprint(attrs entity.ElementAttributes, name, primaryLocator string, now time.Time) entity.ElementFingerprint {
	return entity.ElementFingerprint{
		Name:           name,
		PrimaryLocator: primaryLocator,
		Strategies:     SynthesizeStrategies(attrs),
		Attributes:     attrs,
		LastSeen:       now,
	}
}

// SynthesizeStrategies emits every strategy whose precondition holds, sorted
// ascending by priority.
func SynthesizeStrategies(attrs entity.ElementAttributes) []entity.LocatorStrategy {
	strategies := make([]entity.LocatorStrategy, 0, len(strategyRules))

	for _, rule := range strategyRules {
		selector, ok := rule.build(attrs)
		if !ok {
			continue
		}

		strategies = append(strategies, entity.LocatorStrategy{
			Kind:       rule.kind,
			Selector:   selector,
			Priority:   rule.priority,
			Confidence: rule.confidence,
		})
	}

	sort.SliceStable(strategies, func(i, j int) bool {
		return strategies[i].Priority < strategies[j].Priority
	})

	return strategies
}

// buildContextualCSS qualifies the tag name with the parent's id (preferred)
// or first class token, and the element's type attribute. Omitted entirely
// when no qualifier beyond the bare tag exists.
func buildContextualCSS(attrs entity.ElementAttributes) (string, bool) {
	tag := strings.TrimSpace(attrs.Tag)
	if tag == "" {
		return "", false
	}

	base := tag
	if attrs.Type != "" {
		base = fmt.Sprintf(`%s[type="%s"]`, tag, escapeQuotes(attrs.Type))
	}

	if attrs.Parent != nil {
		if attrs.Parent.ID != "" {
			return fmt.Sprintf("#%s > %s", attrs.Parent.ID, base), true
		}

		if token := firstClassToken(attrs.Parent.Class); token != "" {
			return fmt.Sprintf(".%s > %s", token, base), true
		}
	}

	if attrs.Type != "" {
		return base, true
	}

	return "", false
}

func dataAttrSelector(attrs entity.ElementAttributes, attrName string) (string, bool) {
	value, ok := attrs.Data[attrName]
	if !ok || value == "" {
		return "", false
	}

	return fmt.Sprintf(`[%s="%s"]`, attrName, escapeQuotes(value)), true
}

func attrSelector(attrName, value string) (string, bool) {
	if value == "" {
		return "", false
	}

	return fmt.Sprintf(`[%s="%s"]`, attrName, escapeQuotes(value)), true
}

func firstClassToken(class string) string {
	tokens := strings.Fields(class)
	if len(tokens) == 0 {
		return ""
	}

	return tokens[0]
}

func escapeQuotes(value string) string {
	return strings.ReplaceAll(value, `"`, `\"`)
}
