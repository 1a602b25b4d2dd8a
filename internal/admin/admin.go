// Package admin exposes a read-only HTTP view of the running server:
// health, registry statistics, the newest events and Prometheus metrics.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appLog "github.com/Shivanand-hulikatti/event-manager/internal/log"
	"github.com/Shivanand-hulikatti/event-manager/internal/model"
	"github.com/Shivanand-hulikatti/event-manager/internal/repository"
)

// ShutdownTimeout bounds the graceful stop of the HTTP server.
const ShutdownTimeout = 10 * time.Second

// ServerState is the part of the TCP server the admin surface reports on.
type ServerState interface {
	LiveWorkers() int64
	Closing() bool
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Clients     int   `json:"clients"`
	Events      int   `json:"events"`
	LiveWorkers int64 `json:"live_workers"`
	Accepting   bool  `json:"accepting"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the admin endpoints.
type Handler struct {
	store    *repository.Store
	state    ServerState
	gatherer prometheus.Gatherer
	log      *appLog.Logger
}

// NewHandler constructs a Handler. A nil gatherer disables /metrics.
func NewHandler(store *repository.Store, state ServerState, gatherer prometheus.Gatherer, log *appLog.Logger) *Handler {
	if log == nil {
		log = appLog.Discard()
	}
	return &Handler{store: store, state: state, gatherer: gatherer, log: log}
}

// Router builds the chi router with the same middleware stack as the
// public API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.accessLog)

	r.Get("/health", HealthCheck)
	r.Get("/stats", h.Stats)

	r.Route("/events", func(r chi.Router) {
		r.Get("/top", h.TopEvents)
		r.Get("/{id}/rsvps", h.ListRsvps)
	})

	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("admin request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st := h.store.Stats()
	resp := StatsResponse{Clients: st.Clients, Events: st.Events, Accepting: true}
	if h.state != nil {
		resp.LiveWorkers = h.state.LiveWorkers()
		resp.Accepting = !h.state.Closing()
	}
	writeJSON(w, http.StatusOK, resp)
}

// TopEvents handles GET /events/top, newest first.
func (h *Handler) TopEvents(w http.ResponseWriter, r *http.Request) {
	events := h.store.TopFive()
	if events == nil {
		events = []model.Event{}
	}
	for i := range events {
		if events[i].Attendees == nil {
			events[i].Attendees = []string{}
		}
	}
	writeJSON(w, http.StatusOK, events)
}

// ListRsvps handles GET /events/{id}/rsvps.
func (h *Handler) ListRsvps(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "event id must be an integer")
		return
	}

	names, err := h.store.ListRsvp(id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list rsvps")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// Serve runs an HTTP server for handler on ln until ctx is done, then shuts
// it down gracefully.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, log *appLog.Logger) error {
	if log == nil {
		log = appLog.Discard()
	}
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("admin listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("admin stopped")
	return <-errCh
}
