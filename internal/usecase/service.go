package usecase

import (
	"locator-healer/internal/config"
	"locator-healer/internal/healing"
	"locator-healer/internal/ports"
	"locator-healer/internal/report"
	"locator-healer/internal/usecase/adapters"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	Healer  adapters.HealerService
	Browser adapters.BrowserService
	Store   adapters.StoreService
	Report  adapters.ReportService
}

type Params struct {
	fx.In

	Logger  *zap.Logger
	Config  *config.Config
	Browser ports.BrowserManager
	Store   *healing.Store
	Clock   ports.Clock
	Report  *report.Writer
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)

	return &Service{
		Healer:  factory.CreateHealerService(),
		Browser: factory.CreateBrowserService(),
		Store:   factory.CreateStoreService(),
		Report:  factory.CreateReportService(),
	}
}
