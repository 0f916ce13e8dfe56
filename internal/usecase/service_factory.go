package usecase

import (
	"locator-healer/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateHealerService() adapters.HealerService {
	return NewHealerService(HealerServiceParams{
		Config:  f.deps.Config,
		Logger:  f.deps.Logger,
		Browser: f.deps.Browser,
		Store:   f.deps.Store,
		Clock:   f.deps.Clock,
	})
}

func (f *serviceFactory) CreateBrowserService() adapters.BrowserService {
	return f.deps.Browser
}

func (f *serviceFactory) CreateStoreService() adapters.StoreService {
	return f.deps.Store
}

func (f *serviceFactory) CreateReportService() adapters.ReportService {
	return f.deps.Report
}
