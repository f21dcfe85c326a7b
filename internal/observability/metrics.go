// Package observability wires Prometheus collectors for the sensing
// components and serves them over HTTP.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Trigger  *metrics.TriggerMetrics
	Location *metrics.LocationMetrics
	Resolver *metrics.ResolverMetrics
	Runtime  *metrics.RuntimeMetrics
}

// NewMetrics creates a registry and all collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	triggerMetrics, err := metrics.NewTriggerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create trigger metrics: %w", err)
	}

	locationMetrics, err := metrics.NewLocationMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create location metrics: %w", err)
	}

	resolverMetrics, err := metrics.NewResolverMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver metrics: %w", err)
	}

	runtimeMetrics, err := metrics.NewRuntimeMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Trigger:  triggerMetrics,
		Location: locationMetrics,
		Resolver: resolverMetrics,
		Runtime:  runtimeMetrics,
	}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CountErrors registers an error hook that counts every built EnhancedError
// by component and category.
func (m *Metrics) CountErrors() {
	errors.AddErrorHook(func(ee *errors.EnhancedError) {
		m.Runtime.RecordError(ee.GetComponent(), ee.GetCategory())
	})
}

// RegisterHandlers registers the metrics endpoint with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
}
