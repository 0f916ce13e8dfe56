package adapters

import (
	"context"
	"locator-healer/internal/entity"
)

type HealerService interface {
	Register(ctx context.Context, locator, name string, exec entity.ExecutionContext) (*entity.Resolution, error)
	Heal(ctx context.Context, locator, name string, exec entity.ExecutionContext) (*entity.Resolution, error)
}

type BrowserService interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	ClickRef(ctx context.Context, ref string) error
	FillRef(ctx context.Context, ref string, value string) error
	QueryAll(ctx context.Context, selector string) ([]entity.Candidate, error)
	IsReady() bool
}

type StoreService interface {
	ExportState() entity.StoreSnapshot
	ImportState(snapshot entity.StoreSnapshot)
	Fingerprints() []entity.ElementFingerprint
	Events() []entity.HealingEvent
	ClearEvents()
}

type ReportService interface {
	Generate(snapshot entity.StoreSnapshot) (jsonPath, markdownPath string, err error)
	WriteSnapshot(snapshot entity.StoreSnapshot, path string) error
	LoadSnapshot(path string) (entity.StoreSnapshot, error)
}
