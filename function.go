package pureservice_sync

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/sirupsen/logrus"

	"github.com/vestfoldfylke/pureservice-sync/internal/app"
	"github.com/vestfoldfylke/pureservice-sync/internal/config"
	"github.com/vestfoldfylke/pureservice-sync/internal/logging"
)

func init() {
	functions.HTTP("Synchronize", synchronizeHttp)
	functions.HTTP("Metrics", metricsHttp)
	functions.CloudEvent("SynchronizePubSub", synchronizePubSub)
}

var (
	mu       sync.Mutex
	instance *app.App
)

// loadApp builds the App on first use. The instance is kept for the life of
// the function instance so the rate window survives between invocations.
func loadApp() (a *app.App, err error) {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return instance, nil
	}

	var cfg *config.Config
	if cfg, err = config.Load(""); err != nil {
		logrus.WithError(err).Error("Could not load configuration")
		return
	}
	var log = logging.New(cfg.Log.Level, cfg.Log.Format)
	if err = config.LoadKeeperSecrets(cfg); err != nil {
		log.WithError(err).Error("Could not load secrets from Keeper")
		return
	}
	if a, err = app.New(context.Background(), cfg, log); err != nil {
		log.WithError(err).Error("Invalid configuration")
		return
	}
	instance = a
	return
}

// synchronizeHttp runs one synchronization and answers with the tally as JSON.
func synchronizeHttp(w http.ResponseWriter, r *http.Request) {
	var a, err = loadApp()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	a.SyncHandler(w, r)
}

func metricsHttp(w http.ResponseWriter, r *http.Request) {
	var a, err = loadApp()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	a.MetricsHandler().ServeHTTP(w, r)
}

// synchronizePubSub is triggered by Cloud Scheduler through Pub/Sub.
func synchronizePubSub(ctx context.Context, _ event.Event) (err error) {
	var a *app.App
	if a, err = loadApp(); err != nil {
		return
	}
	var result, er1 = a.Run(ctx)
	if errors.Is(er1, app.ErrRunInProgress) {
		logrus.Warn("Previous synchronization is still running, skipping this trigger")
		return
	}
	if er1 != nil {
		err = er1
		return
	}
	err = app.PrintStatistics(os.Stdout, result, app.FormatText)
	return
}
