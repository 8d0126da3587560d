package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yaron8/netmonitor/logi"
	"github.com/yaron8/netmonitor/monitor/aggregator"
	"github.com/yaron8/netmonitor/telemetrics"
)

// PublishedReader reads back the link views last published to Redis.
type PublishedReader interface {
	GetAll(ctx context.Context) ([]telemetrics.LinkView, error)
	GetLastUpdateTime(ctx context.Context) (time.Time, error)
}

type APIServer struct {
	port       int
	mu         sync.Mutex
	server     *http.Server
	closed     bool
	aggregator *aggregator.Aggregator
	gatherer   prometheus.Gatherer
	published  PublishedReader
	logger     *slog.Logger
}

// NewAPIServer serves /networkmonitor/published only when published is not nil.
func NewAPIServer(port int, agg *aggregator.Aggregator, gatherer prometheus.Gatherer, published PublishedReader) *APIServer {
	return &APIServer{
		port:       port,
		aggregator: agg,
		gatherer:   gatherer,
		published:  published,
		logger:     logi.GetLogger(),
	}
}

// Handler builds the router serving every endpoint.
func (api *APIServer) Handler() http.Handler {
	r := mux.NewRouter()

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			api.logger.Error("Error writing health check response", "error", err)
		}
	}).Methods(http.MethodGet)

	nm := r.PathPrefix("/networkmonitor").Subrouter()
	nm.HandleFunc("/links", api.ListLinksHandler).Methods(http.MethodGet)
	nm.HandleFunc("/nodes/{node}/rtt", api.ResponseTimeHandler).Methods(http.MethodGet)
	nm.HandleFunc("/latency/{src}/{dst}", api.LatencyHandler).Methods(http.MethodGet)
	nm.HandleFunc("/ports/{node}/{port}/bandwidth", api.BandwidthHandler).Methods(http.MethodGet)
	nm.HandleFunc("/ports/{node}/{port}/loss", api.LossHandler).Methods(http.MethodGet)
	if api.published != nil {
		nm.HandleFunc("/published", api.PublishedLinksHandler).Methods(http.MethodGet)
	}

	if api.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(api.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Start serves HTTP until Shutdown is called.
func (api *APIServer) Start() error {
	api.logger.Info("Network monitor APIServer starting", "port", api.port)

	api.mu.Lock()
	if api.closed {
		api.mu.Unlock()
		return nil
	}
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", api.port),
		Handler:      api.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	api.server = server
	api.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		api.logger.Error("Server failed to start", "error", err, "port", api.port)
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops the server gracefully. A server shut down before Start never serves.
func (api *APIServer) Shutdown(ctx context.Context) error {
	api.mu.Lock()
	api.closed = true
	server := api.server
	api.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
