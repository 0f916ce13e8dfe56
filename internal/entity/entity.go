package entity

import (
	"time"

	"github.com/google/uuid"
)

// StrategyKind names one technique for synthesizing an alternative selector.
type StrategyKind string

const (
	StrategyTestID        StrategyKind = "test-id"
	StrategyCypressTestID StrategyKind = "cypress-test-id"
	StrategyID            StrategyKind = "id"
	StrategyAriaLabel     StrategyKind = "aria-label"
	StrategyName          StrategyKind = "name"
	StrategyPlaceholder   StrategyKind = "placeholder"
	StrategyRole          StrategyKind = "role"
	StrategyTextContent   StrategyKind = "text-content"
	StrategyCSSClass      StrategyKind = "css-class"
	StrategyContextualCSS StrategyKind = "contextual-css"

	// StrategyXPath is reserved; no synthesis rule emits it yet.
	StrategyXPath StrategyKind = "xpath"
)

// MatchedBy records which mechanism resolved an element. It covers every
// StrategyKind plus the two non-strategy outcomes below.
type MatchedBy string

const (
	MatchedByDirect     MatchedBy = "direct"
	MatchedBySimilarity MatchedBy = "similarity"
)

// SimilarityMatchLocator is the sentinel stored in a HealingEvent when the
// element was recovered by the similarity scan and no locator string applies.
const SimilarityMatchLocator = "similarity-based"

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ParentContext struct {
	Tag   string `json:"tag,omitempty"`
	Class string `json:"class,omitempty"`
	ID    string `json:"id,omitempty"`
}

// ElementAttributes is a snapshot of observable element properties taken at
// capture time. Every field except Tag is optional; an empty string means the
// attribute was not present on the element, not that it was empty.
type ElementAttributes struct {
	Tag          string            `json:"tag"`
	Text         string            `json:"text,omitempty"`
	RenderedText string            `json:"renderedText,omitempty"`
	Class        string            `json:"class,omitempty"`
	ID           string            `json:"id,omitempty"`
	Name         string            `json:"name,omitempty"`
	Placeholder  string            `json:"placeholder,omitempty"`
	Title        string            `json:"title,omitempty"`
	AriaLabel    string            `json:"ariaLabel,omitempty"`
	Role         string            `json:"role,omitempty"`
	Type         string            `json:"type,omitempty"`
	Href         string            `json:"href,omitempty"`
	Src          string            `json:"src,omitempty"`
	Value        string            `json:"value,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	Box          BoundingBox       `json:"box"`
	Parent       *ParentContext    `json:"parent,omitempty"`
}

// LocatorStrategy is one synthesized candidate selector. Generated once at
// capture time and never mutated; Confidence is static per kind.
type LocatorStrategy struct {
	Kind       StrategyKind `json:"kind"`
	Selector   string       `json:"selector"`
	Priority   int          `json:"priority"`
	Confidence float64      `json:"confidence"`
}

// ElementFingerprint is the unit of identity for healing, keyed by a
// caller-chosen logical name. Strategies are sorted ascending by priority.
type ElementFingerprint struct {
	Name           string            `json:"name"`
	PrimaryLocator string            `json:"primaryLocator"`
	Strategies     []LocatorStrategy `json:"strategies"`
	Attributes     ElementAttributes `json:"attributes"`
	LastSeen       time.Time         `json:"lastSeen"`
	HealCount      int               `json:"healCount"`
}

// HealingEvent is an immutable record of one healing occurrence.
type HealingEvent struct {
	ID            uuid.UUID `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	ElementName   string    `json:"elementName"`
	FailedLocator string    `json:"failedLocator"`
	HealedLocator string    `json:"healedLocator"`
	Strategy      MatchedBy `json:"strategy"`
	Confidence    float64   `json:"confidence"`
	TestFile      string    `json:"testFile,omitempty"`
	TestName      string    `json:"testName,omitempty"`
}

// ExecutionContext identifies the test step on whose behalf the engine acts.
type ExecutionContext struct {
	TestFile string
	TestName string
}

// Candidate is one live element returned by a document query: its extracted
// attributes plus a stable selector the host can act on afterwards.
type Candidate struct {
	Ref        string
	Attributes ElementAttributes
}

// MatchResult is the outcome of one matcher pass. Candidate is nil when no
// element cleared the acceptance policy; Confidence then carries the best
// score achieved so callers can report it.
type MatchResult struct {
	Candidate      *Candidate
	MatchedLocator string
	Confidence     float64
	MatchedBy      MatchedBy
}

// Resolution is what Register and Heal hand back to the test step.
type Resolution struct {
	Element    Candidate
	Healed     bool
	Confidence float64
	MatchedBy  MatchedBy
}

// StoreSnapshot is the JSON-serializable export of the store's two
// collections, the boundary shape for persistence and reporting.
type StoreSnapshot struct {
	Fingerprints  []ElementFingerprint `json:"fingerprints"`
	HealingEvents []HealingEvent       `json:"healingEvents"`
}
