package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const SynchronizePath = "/api/User/Synchronize"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// SyncHandler runs one synchronization and answers with its tally.
func (a *App) SyncHandler(w http.ResponseWriter, r *http.Request) {
	var result, err = a.Run(r.Context())
	switch {
	case errors.Is(err, ErrRunInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case err != nil:
		a.log.WithError(err).Error("Synchronization failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func (a *App) MetricsHandler() http.Handler {
	return a.metrics.Handler()
}

// Router serves the synchronization trigger and the metrics.
func (a *App) Router() chi.Router {
	var r = chi.NewRouter()
	r.Post(SynchronizePath, a.SyncHandler)
	r.Method(http.MethodGet, "/metrics", a.MetricsHandler())
	return r
}
