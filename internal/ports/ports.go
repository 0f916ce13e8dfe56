package ports

import (
	"context"
	"locator-healer/internal/entity"
	"time"
)

// DocumentQuerier executes one structural query against the live document and
// returns every matching element with its attributes already extracted.
// A malformed selector surfaces as an error; callers inside the matching
// engine treat that as "zero matches", never as a fatal condition.
type DocumentQuerier interface {
	QueryAll(ctx context.Context, selector string) ([]entity.Candidate, error)
}

type BrowserManager interface {
	DocumentQuerier

	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	ClickRef(ctx context.Context, ref string) error
	FillRef(ctx context.Context, ref string, value string) error
	IsReady() bool
}

type Clock interface {
	Now() time.Time
}

// EventSink receives each healing event at the moment it is recorded.
type EventSink interface {
	Offer(event entity.HealingEvent)
}

type Healer interface {
	Register(ctx context.Context, locator, name string, exec entity.ExecutionContext) (*entity.Resolution, error)
	Heal(ctx context.Context, locator, name string, exec entity.ExecutionContext) (*entity.Resolution, error)
}
