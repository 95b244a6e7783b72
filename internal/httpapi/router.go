package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Options struct {
	logger  *zap.Logger
	metrics Metrics
}

type Option func(*Options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithMetrics instruments every route and mounts GET /metrics.
func WithMetrics(m Metrics) Option {
	return func(o *Options) {
		o.metrics = m
	}
}

// NewRouter wires the JSON API:
//
//	POST /v1/charts
//	POST /v1/compatibility
//	GET  /v1/compatibility/quick?sign1=&sign2=
//	GET  /health
//	GET  /metrics (only with WithMetrics)
func NewRouter(synastry SynastryService, opts ...Option) *mux.Router {
	options := &Options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}
	logger := options.logger.Named("http")

	h := NewHandlers(synastry, options.logger)

	router := mux.NewRouter()
	router.Use(requestIDMiddleware, observeMiddleware(logger, options.metrics), recoveryMiddleware(logger))

	// Routes stay on the root router: a subrouter answers method mismatches with 404.
	router.HandleFunc("/v1/charts", h.BuildChart).Methods(http.MethodPost)
	router.HandleFunc("/v1/compatibility", h.Compatibility).Methods(http.MethodPost)
	router.HandleFunc("/v1/compatibility/quick", h.QuickCompatibility).Methods(http.MethodGet)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if options.metrics != nil {
		router.Handle("/metrics", options.metrics.Handler()).Methods(http.MethodGet)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	return router
}
