package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/clickops/cache"
	"github.com/jonwraymond/clickops/observe"
)

// HTTP is the optional sidecar listener for health and metrics. The
// protocol itself runs over stdio; this exists for process supervisors
// and scrapers.
type HTTP struct {
	srv    *http.Server
	logger observe.Logger
}

type healthResponse struct {
	Status string      `json:"status"`
	Uptime string      `json:"uptime"`
	Cache  cache.Stats `json:"cache"`
}

// NewHTTP builds the sidecar listener. stats supplies a point-in-time
// snapshot of the shared cache store.
func NewHTTP(addr string, stats func() cache.Stats, logger observe.Logger) *HTTP {
	if logger == nil {
		logger = observe.NopLogger()
	}
	started := time.Now()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		resp := healthResponse{
			Status: "ok",
			Uptime: time.Since(started).Round(time.Second).String(),
		}
		if stats != nil {
			resp.Cache = stats()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return &HTTP{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the mux, mainly for tests.
func (h *HTTP) Handler() http.Handler {
	return h.srv.Handler
}

// Start runs the listener until it fails or is shut down.
func (h *HTTP) Start() error {
	h.logger.Info(context.Background(), "health listener starting",
		observe.Field{Key: "addr", Value: h.srv.Addr},
	)
	if err := h.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains the listener.
func (h *HTTP) Shutdown(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
