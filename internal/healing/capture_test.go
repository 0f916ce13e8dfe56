package healing

import (
	"locator-healer/internal/entity"
	"testing"
	"time"
)

func fullAttributes() entity.ElementAttributes {
	return entity.ElementAttributes{
		Tag:         "input",
		Text:        "Submit",
		Class:       "btn",
		ID:          "submit-btn",
		Name:        "submit",
		Placeholder: "Enter value",
		AriaLabel:   "Submit form",
		Role:        "button",
		Type:        "submit",
		Data: map[string]string{
			"data-testid": "submit-button",
			"data-cy":     "submit",
		},
		Box: entity.BoundingBox{X: 10, Y: 20, Width: 100, Height: 30},
		Parent: &entity.ParentContext{
			Tag:   "form",
			Class: "login-form compact",
			ID:    "login",
		},
	}
}

func TestSynthesizeStrategiesAllPreconditionsHold(t *testing.T) {
	strategies := SynthesizeStrategies(fullAttributes())

	want := []struct {
		kind       entity.StrategyKind
		selector   string
		priority   int
		confidence float64
	}{
		{entity.StrategyTestID, `[data-testid="submit-button"]`, 1, 0.95},
		{entity.StrategyCypressTestID, `[data-cy="submit"]`, 2, 0.95},
		{entity.StrategyID, "#submit-btn", 3, 0.90},
		{entity.StrategyAriaLabel, `[aria-label="Submit form"]`, 4, 0.85},
		{entity.StrategyName, `[name="submit"]`, 5, 0.80},
		{entity.StrategyPlaceholder, `[placeholder="Enter value"]`, 6, 0.75},
		{entity.StrategyRole, `[role="button"]`, 7, 0.70},
		{entity.StrategyTextContent, `text="Submit"`, 8, 0.70},
		{entity.StrategyCSSClass, ".btn", 9, 0.50},
		{entity.StrategyContextualCSS, `#login > input[type="submit"]`, 10, 0.60},
	}

	if len(strategies) != len(want) {
		t.Fatalf("expected %d strategies, got %d: %+v", len(want), len(strategies), strategies)
	}

	for i, w := range want {
		got := strategies[i]
		if got.Kind != w.kind {
			t.Errorf("strategy %d: expected kind %s, got %s", i, w.kind, got.Kind)
		}
		if got.Selector != w.selector {
			t.Errorf("strategy %d: expected selector %q, got %q", i, w.selector, got.Selector)
		}
		if got.Priority != w.priority {
			t.Errorf("strategy %d: expected priority %d, got %d", i, w.priority, got.Priority)
		}
		if got.Confidence != w.confidence {
			t.Errorf("strategy %d: expected confidence %v, got %v", i, w.confidence, got.Confidence)
		}
	}
}

func TestSynthesizeStrategiesSortedByPriority(t *testing.T) {
	strategies := SynthesizeStrategies(fullAttributes())

	for i := 1; i < len(strategies); i++ {
		if strategies[i-1].Priority > strategies[i].Priority {
			t.Fatalf("strategies not sorted ascending by priority: %+v", strategies)
		}
	}
}

func TestSynthesizeStrategiesPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		attrs   entity.ElementAttributes
		want    []entity.StrategyKind
		exclude []entity.StrategyKind
	}{
		{
			name:    "role requires text",
			attrs:   entity.ElementAttributes{Tag: "div", Role: "button"},
			exclude: []entity.StrategyKind{entity.StrategyRole},
		},
		{
			name:  "role with text emits role-only selector",
			attrs: entity.ElementAttributes{Tag: "div", Role: "button", Text: "Go"},
			want:  []entity.StrategyKind{entity.StrategyRole},
		},
		{
			name:    "text at limit is excluded",
			attrs:   entity.ElementAttributes{Tag: "p", Text: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
			exclude: []entity.StrategyKind{entity.StrategyTextContent},
		},
		{
			name:    "multi-token class excluded",
			attrs:   entity.ElementAttributes{Tag: "div", Class: "btn primary"},
			exclude: []entity.StrategyKind{entity.StrategyCSSClass},
		},
		{
			name:  "single class token accepted",
			attrs: entity.ElementAttributes{Tag: "div", Class: "btn"},
			want:  []entity.StrategyKind{entity.StrategyCSSClass},
		},
		{
			name:    "bare tag emits nothing",
			attrs:   entity.ElementAttributes{Tag: "div"},
			exclude: []entity.StrategyKind{entity.StrategyContextualCSS},
		},
		{
			name:  "type alone qualifies contextual css",
			attrs: entity.ElementAttributes{Tag: "input", Type: "text"},
			want:  []entity.StrategyKind{entity.StrategyContextualCSS},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategies := SynthesizeStrategies(tt.attrs)
			kinds := make(map[entity.StrategyKind]bool)
			for _, s := range strategies {
				kinds[s.Kind] = true
			}

			for _, k := range tt.want {
				if !kinds[k] {
					t.Errorf("expected strategy %s, got %+v", k, strategies)
				}
			}
			for _, k := range tt.exclude {
				if kinds[k] {
					t.Errorf("did not expect strategy %s, got %+v", k, strategies)
				}
			}
		})
	}
}

func TestSynthesizeStrategiesEscapesQuotes(t *testing.T) {
	attrs := entity.ElementAttributes{
		Tag:       "button",
		Text:      `Say "hello"`,
		AriaLabel: `Label with "quotes"`,
	}

	strategies := SynthesizeStrategies(attrs)

	var aria, text string
	for _, s := range strategies {
		switch s.Kind {
		case entity.StrategyAriaLabel:
			aria = s.Selector
		case entity.StrategyTextContent:
			text = s.Selector
		}
	}

	if aria != `[aria-label="Label with \"quotes\""]` {
		t.Errorf("aria-label selector not escaped: %q", aria)
	}
	if text != `text="Say \"hello\""` {
		t.Errorf("text selector not escaped: %q", text)
	}
}

func TestContextualCSSPrefersParentID(t *testing.T) {
	tests := []struct {
		name  string
		attrs entity.ElementAttributes
		want  string
	}{
		{
			name: "parent id wins over class",
			attrs: entity.ElementAttributes{
				Tag:    "input",
				Parent: &entity.ParentContext{ID: "form1", Class: "wrapper outer"},
			},
			want: "#form1 > input",
		},
		{
			name: "parent first class token when no id",
			attrs: entity.ElementAttributes{
				Tag:    "input",
				Parent: &entity.ParentContext{Class: "wrapper outer"},
			},
			want: ".wrapper > input",
		},
		{
			name: "type qualifier combined with parent",
			attrs: entity.ElementAttributes{
				Tag:    "input",
				Type:   "email",
				Parent: &entity.ParentContext{Class: "field"},
			},
			want: `.field > input[type="email"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector, ok := buildContextualCSS(tt.attrs)
			if !ok {
				t.Fatal("expected contextual css to be emitted")
			}
			if selector != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, selector)
			}
		})
	}
}

func TestCaptureFingerprint(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	attrs := fullAttributes()

	fp := CaptureFingerprint(attrs, "submitButton", "#submit-btn", now)

	if fp.Name != "submitButton" {
		t.Fatalf("unexpected name: %s", fp.Name)
	}
	if fp.PrimaryLocator != "#submit-btn" {
		t.Fatalf("unexpected primary locator: %s", fp.PrimaryLocator)
	}
	if !fp.LastSeen.Equal(now) {
		t.Fatalf("unexpected last seen: %s", fp.LastSeen)
	}
	if fp.HealCount != 0 {
		t.Fatalf("fresh fingerprint must have zero heal count, got %d", fp.HealCount)
	}
	if len(fp.Strategies) != 10 {
		t.Fatalf("expected 10 strategies, got %d", len(fp.Strategies))
	}
}
