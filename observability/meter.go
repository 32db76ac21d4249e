package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/william251082/fileupload/logger"
)

// Meter is a meter provider backed by a private Prometheus registry.
type Meter struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry
}

// InitMeter builds the Prometheus pipeline and installs it as the global
// meter provider. Go runtime and process collectors are registered too.
func InitMeter(cfg MeterConfig, res *resource.Resource, log *logger.Logger) (*Meter, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
		otelprom.WithNamespace(cfg.Namespace),
	)
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	log.Info("meter initialized", logger.Fields("namespace", cfg.Namespace))
	return &Meter{provider: provider, registry: registry}, nil
}

// Meter returns a named meter from this provider.
func (m *Meter) Meter(name string) metric.Meter {
	return m.provider.Meter(name)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Meter) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Shutdown flushes and stops the provider.
func (m *Meter) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
