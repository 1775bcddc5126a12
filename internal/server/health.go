package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
)

const pingTimeout = 2 * time.Second

type (
	pinger interface {
		Ping(ctx context.Context) error
	}

	// HealthSrvc reports whether the activity store is reachable
	HealthSrvc struct {
		store pinger
		now   func() time.Time
	}

	// HealthResponse represents the response structure for health check endpoint
	HealthResponse struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Store     bool      `json:"store"`
	}
)

func NewHealthHandler(srvc *HealthSrvc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := hlog.FromRequest(r)

		response := srvc.check(ctx)

		w.Header().Set("Content-Type", "application/json")

		if response.Store {
			logger.Debug().Msg("Store healthcheck ok")
			w.WriteHeader(http.StatusOK)
		} else {
			logger.Error().Msg("Store healthcheck failed")
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error().Err(err).Msg("Failed to encode health check response")
		}
	}
}

func NewHealthSrvc(store pinger) *HealthSrvc {
	return &HealthSrvc{store: store, now: time.Now}
}

func (s *HealthSrvc) check(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	storeOk := s.store.Ping(ctx) == nil

	status := "serving"
	if !storeOk {
		status = "not serving"
	}
	return HealthResponse{
		Status:    status,
		Timestamp: s.now().UTC(),
		Store:     storeOk,
	}
}
