// Package metrics exposes Prometheus collectors for the transports, the
// geocoding chain and chart construction.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/godilite/astromatch/internal/astro"
	"github.com/godilite/astromatch/internal/geocoding"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "astromatch"

var defaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

type Options struct {
	Namespace      string
	RuntimeMetrics bool
	Buckets        []float64
}

type Option func(*Options)

func WithNamespace(ns string) Option {
	return func(o *Options) {
		o.Namespace = ns
	}
}

// WithRuntimeMetrics adds the Go and process collectors to the registry.
func WithRuntimeMetrics(enabled bool) Option {
	return func(o *Options) {
		o.RuntimeMetrics = enabled
	}
}

func WithBuckets(b []float64) Option {
	return func(o *Options) {
		o.Buckets = b
	}
}

// Metrics owns a private registry so tests and multiple instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	grpcRequests *prometheus.CounterVec
	grpcDuration *prometheus.HistogramVec
	geocodeTiers *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	chartBuilds  *prometheus.CounterVec
	chartTime    prometheus.Histogram
}

func New(opts ...Option) *Metrics {
	options := &Options{
		Namespace: defaultNamespace,
		Buckets:   defaultBuckets,
	}
	for _, opt := range opts {
		opt(options)
	}
	ns := options.Namespace

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request latency.", Buckets: options.Buckets,
		}, []string{"route", "method"}),
		grpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "grpc", Name: "requests_total",
			Help: "Unary gRPC calls by method and status code.",
		}, []string{"method", "code"}),
		grpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: "grpc", Name: "request_duration_seconds",
			Help: "Unary gRPC latency.", Buckets: options.Buckets,
		}, []string{"method"}),
		geocodeTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "geocoder", Name: "resolutions_total",
			Help: "City resolutions by the tier that answered.",
		}, []string{"tier"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "cache", Name: "lookups_total",
			Help: "Result cache lookups by outcome (hit, miss, error, bypass).",
		}, []string{"result"}),
		chartBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "chart", Name: "builds_total",
			Help: "Natal chart builds by outcome.",
		}, []string{"outcome"}),
		chartTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: "chart", Name: "build_duration_seconds",
			Help: "Natal chart build latency.", Buckets: options.Buckets,
		}),
	}

	m.registry.MustRegister(
		m.httpRequests, m.httpDuration,
		m.grpcRequests, m.grpcDuration,
		m.geocodeTiers,
		m.cacheLookups,
		m.chartBuilds, m.chartTime,
	)
	if options.RuntimeMetrics {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: ns}),
		)
	}
	return m
}

// Registry exposes the underlying registry for scraping in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) ObserveGRPC(method, code string, d time.Duration) {
	m.grpcRequests.WithLabelValues(method, code).Inc()
	m.grpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

// GeocodeHook is passed to geocoding.WithHook.
func (m *Metrics) GeocodeHook() func(geocoding.Tier) {
	return func(tier geocoding.Tier) {
		m.geocodeTiers.WithLabelValues(string(tier)).Inc()
	}
}

func (m *Metrics) ObserveCache(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

type chartBuilder interface {
	Build(ctx context.Context, in astro.BirthInput) (astro.NatalChart, error)
}

// InstrumentedBuilder counts and times chart builds of the wrapped builder.
type InstrumentedBuilder struct {
	next    chartBuilder
	metrics *Metrics
}

func (m *Metrics) InstrumentBuilder(next chartBuilder) *InstrumentedBuilder {
	if next == nil {
		panic("nil chart builder provided to InstrumentBuilder")
	}
	return &InstrumentedBuilder{next: next, metrics: m}
}

func (b *InstrumentedBuilder) Build(ctx context.Context, in astro.BirthInput) (astro.NatalChart, error) {
	start := time.Now()
	chart, err := b.next.Build(ctx, in)
	b.metrics.chartTime.Observe(time.Since(start).Seconds())
	b.metrics.chartBuilds.WithLabelValues(outcome(err)).Inc()
	return chart, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, astro.ErrEphemerisUnavailable):
		return "ephemeris_error"
	default:
		return "error"
	}
}
