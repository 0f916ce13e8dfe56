package healing

import (
	"locator-healer/internal/entity"
	"math"
	"testing"
)

func TestStringSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "username", "username", 1},
		{"left empty", "", "username", 0},
		{"right empty", "username", "", 0},
		{"both empty", "", "", 0},
		{"kitten sitting", "kitten", "sitting", 1 - 3.0/7.0},
		{"completely different", "abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StringSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("StringSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestStringSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"submit", "sub"},
		{"Enter username", "Enter password"},
		{"x", "xxxxxxxxxxxxxxxxxxxx"},
	}

	for _, p := range pairs {
		got := StringSimilarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Fatalf("StringSimilarity(%q, %q) = %v out of [0,1]", p[0], p[1], got)
		}
	}
}

func TestSimilarityScoreIdenticalAttributes(t *testing.T) {
	attrs := entity.ElementAttributes{
		Tag:         "input",
		Text:        "Submit",
		AriaLabel:   "Submit form",
		Name:        "submit",
		Placeholder: "Enter value",
		Role:        "button",
		Class:       "btn primary",
		Data:        map[string]string{"data-testid": "submit"},
		Box:         entity.BoundingBox{X: 10, Y: 20, Width: 100, Height: 30},
	}

	if got := SimilarityScore(attrs, attrs); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical attributes should score 1, got %v", got)
	}
}

func TestSimilarityScoreNoApplicableSignals(t *testing.T) {
	target := entity.ElementAttributes{Tag: "div"}
	candidate := entity.ElementAttributes{Tag: "div", Text: "anything"}

	if got := SimilarityScore(target, candidate); got != 0 {
		t.Fatalf("no applicable signals should score 0, got %v", got)
	}
}

func TestSimilarityScoreRenormalization(t *testing.T) {
	// Target carries only a name; a candidate matching it exactly must score
	// 1 even though every other signal is missing.
	target := entity.ElementAttributes{Tag: "input", Name: "email"}
	candidate := entity.ElementAttributes{Tag: "input", Name: "email", Class: "totally different"}

	if got := SimilarityScore(target, candidate); math.Abs(got-1) > 1e-9 {
		t.Fatalf("single matching signal should renormalize to 1, got %v", got)
	}
}

func TestSimilarityScoreMonotonicity(t *testing.T) {
	target := entity.ElementAttributes{
		Tag:         "input",
		Placeholder: "Enter username",
		Name:        "username",
		Role:        "textbox",
	}

	weaker := entity.ElementAttributes{
		Tag:         "input",
		Placeholder: "Enter username",
		Name:        "username",
	}

	stronger := weaker
	stronger.Role = "textbox"

	if SimilarityScore(target, stronger) < SimilarityScore(target, weaker) {
		t.Fatal("adding an exactly-matching signal must not decrease the score")
	}
}

func TestSimilarityScoreDataOverlap(t *testing.T) {
	target := entity.ElementAttributes{
		Tag:  "div",
		Data: map[string]string{"data-a": "1", "data-b": "2"},
	}

	half := entity.ElementAttributes{
		Tag:  "div",
		Data: map[string]string{"data-a": "1", "data-b": "wrong"},
	}

	// data is the only applicable signal, so the fraction passes straight through
	if got := SimilarityScore(target, half); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 0.5 for half-matched data attributes, got %v", got)
	}
}

func TestSimilarityScoreClassOverlap(t *testing.T) {
	target := entity.ElementAttributes{Tag: "div", Class: "a b c d"}
	candidate := entity.ElementAttributes{Tag: "div", Class: "a c zzz"}

	if got := SimilarityScore(target, candidate); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 0.5 class overlap, got %v", got)
	}
}

func TestPositionScore(t *testing.T) {
	tests := []struct {
		name      string
		target    entity.BoundingBox
		candidate entity.BoundingBox
		want      float64
	}{
		{
			name:      "same position and size",
			target:    entity.BoundingBox{X: 10, Y: 10, Width: 100, Height: 50},
			candidate: entity.BoundingBox{X: 10, Y: 10, Width: 100, Height: 50},
			want:      1,
		},
		{
			name:      "far away and resized",
			target:    entity.BoundingBox{X: 0, Y: 0, Width: 100, Height: 50},
			candidate: entity.BoundingBox{X: 500, Y: 500, Width: 400, Height: 300},
			want:      0,
		},
		{
			name:      "moved 100px, same size",
			target:    entity.BoundingBox{X: 0, Y: 0, Width: 100, Height: 50},
			candidate: entity.BoundingBox{X: 100, Y: 0, Width: 100, Height: 50},
			want:      0.5*(1-100.0/200.0) + 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := positionScore(tt.target, tt.candidate)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
