package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vestfoldfylke/pureservice-sync/entra"
	"github.com/vestfoldfylke/pureservice-sync/fint"
	"github.com/vestfoldfylke/pureservice-sync/internal/config"
	"github.com/vestfoldfylke/pureservice-sync/internal/metrics"
	"github.com/vestfoldfylke/pureservice-sync/pureservice"
	"github.com/vestfoldfylke/pureservice-sync/ratelimit"
	"github.com/vestfoldfylke/pureservice-sync/reconcile"
)

var ErrRunInProgress = errors.New("a synchronization run is already in progress")

type runner interface {
	Synchronize(ctx context.Context) (*reconcile.Result, error)
}

// App owns one synchronizer and the rate governor shared by all its runs.
// Only one run is active at a time.
type App struct {
	runner  runner
	metrics *metrics.Prometheus
	log     logrus.FieldLogger
	mu      sync.Mutex
}

// New wires the Pureservice, Entra ID and FINT clients described by cfg.
// ctx is used by the OAuth token sources and should outlive the App.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (a *App, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}

	var counter = metrics.NewPrometheus(cfg.Metrics.Prefix)
	var governor = ratelimit.NewGovernor(cfg.Pureservice.MaxRequestsPerMinute)

	var caller = pureservice.NewCaller(cfg.Pureservice.BaseUrl, cfg.Pureservice.ApiKey,
		pureservice.WithRecorder(governor),
		pureservice.WithMetrics(counter),
		pureservice.WithLogger(log))
	var serviceOpts = []pureservice.ServiceOption{
		pureservice.WithServiceMetrics(counter),
		pureservice.WithServiceLogger(log),
	}
	var services = reconcile.Services{
		Users:             pureservice.NewUserService(caller, serviceOpts...),
		Companies:         pureservice.NewCompanyService(caller, serviceOpts...),
		EmailAddresses:    pureservice.NewEmailAddressService(caller, serviceOpts...),
		PhoneNumbers:      pureservice.NewPhoneNumberService(caller, serviceOpts...),
		PhysicalAddresses: pureservice.NewPhysicalAddressService(caller, serviceOpts...),
	}

	var directory = entra.NewDirectory(ctx, entra.GraphParameters{
		TenantId:       cfg.Graph.TenantId,
		ClientId:       cfg.Graph.ClientId,
		ClientSecret:   cfg.Graph.ClientSecret,
		BaseUrl:        cfg.Graph.BaseUrl,
		EmployeeDomain: cfg.Graph.EmployeeDomain,
		StudentDomain:  cfg.Graph.StudentDomain,
	}, entra.WithMetrics(counter), entra.WithLogger(log))

	var phones = &phoneSource{
		students: newStudentLookup(ctx, cfg, counter, log),
		log:      log,
	}

	var options = reconcile.Options{
		Policy:                 reconcile.PolicySkip,
		CreateMissingCompanies: cfg.Sync.CreateMissingCompanies,
		RequireEmailAndCompany: cfg.Sync.RequireEmailAndCompany,
		IncludeStudents:        cfg.Graph.IncludeStudents,
		MaxRunDuration:         cfg.MaxRunDuration(),
	}
	if cfg.Sync.RateLimitPolicy == config.PolicyWait {
		options.Policy = reconcile.PolicyWait
	}

	var synchronizer = reconcile.NewSynchronizer(directory, services, governor, options,
		reconcile.WithLogger(log),
		reconcile.WithMetrics(counter),
		reconcile.WithPhoneSource(phones))

	a = &App{
		runner:  synchronizer,
		metrics: counter,
		log:     log,
	}
	return
}

// newStudentLookup returns the FINT client selected by fint.mode, or nil.
func newStudentLookup(ctx context.Context, cfg *config.Config, counter metrics.Counter, log logrus.FieldLogger) studentLookup {
	var opts = []fint.Option{fint.WithMetrics(counter), fint.WithLogger(log)}
	switch cfg.Fint.Mode {
	case config.FintModeGraphql:
		return fint.NewClient(ctx, fint.Parameters{
			BaseUrl:         cfg.Fint.BaseUrl,
			TokenUrl:        cfg.Fint.TokenUrl,
			ClientId:        cfg.Fint.ClientId,
			ClientSecret:    cfg.Fint.ClientSecret,
			Username:        cfg.Fint.Username,
			Password:        cfg.Fint.Password,
			Scope:           cfg.Fint.Scope,
			FeideNameDomain: cfg.Fint.FeideNameDomain,
		}, opts...)
	case config.FintModeFolk:
		return fint.NewFolkClient(ctx, fint.FolkParameters{
			BaseUrl:      cfg.FintFolk.BaseUrl,
			TokenUrl:     entra.TokenUrl(cfg.Graph.TenantId),
			ClientId:     cfg.Graph.ClientId,
			ClientSecret: cfg.Graph.ClientSecret,
			Scopes:       cfg.FintFolk.Scopes,
		}, opts...)
	}
	return nil
}

// Run performs one synchronization. It returns ErrRunInProgress when another
// run has not finished yet.
func (a *App) Run(ctx context.Context) (result *reconcile.Result, err error) {
	if !a.mu.TryLock() {
		err = ErrRunInProgress
		return
	}
	defer a.mu.Unlock()
	return a.runner.Synchronize(ctx)
}

// Schedule runs a synchronization every interval until ctx is done.
func (a *App) Schedule(ctx context.Context, interval time.Duration) {
	var ticker = time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Run(ctx); err != nil {
				a.log.WithError(err).Warn("Scheduled synchronization failed")
			}
		}
	}
}

func (a *App) Metrics() *metrics.Prometheus {
	return a.metrics
}
