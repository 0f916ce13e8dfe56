package bootstrap

import (
	"locator-healer/internal/browser"
	"locator-healer/internal/config"
	"locator-healer/internal/console"
	"locator-healer/internal/healing"
	"locator-healer/internal/ports"
	"locator-healer/internal/report"
	"locator-healer/internal/usecase"
	"time"

	"go.uber.org/fx"
)

func NewApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,
			newClock,

			fx.Annotate(browser.NewManager, fx.As(new(ports.BrowserManager))),
			fx.Annotate(newEventSink, fx.As(new(ports.EventSink))),

			healing.NewStore,
			report.NewWriter,
			usecase.NewUsecase,

			console.NewInterface,
		),

		fx.Invoke(
			runConsole,
		),

		fx.StartTimeout(10*time.Second),
	)
}
