package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/william251082/fileupload/component"
	"github.com/william251082/fileupload/logger"
)

// Component owns the tracer and meter providers. The meter is created at
// construction so instruments and the /metrics route can be wired before
// Start; the trace exporter is started with the other components.
type Component struct {
	cfg    Config
	log    *logger.Logger
	res    *resource.Resource
	meter  *Meter
	tracer *sdktrace.TracerProvider
}

var _ component.Component = (*Component)(nil)

// NewComponent builds the telemetry resource and, when enabled, the metrics
// pipeline.
func NewComponent(cfg Config, serviceName, serviceVersion, environment string, log *logger.Logger) (*Component, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.WithComponent("observability")

	res, err := NewResource(serviceName, serviceVersion, environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	c := &Component{cfg: cfg, log: log, res: res}
	if cfg.Metrics.Enabled {
		if c.meter, err = InitMeter(cfg.Metrics, res, log); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MeterProvider returns the provider instruments should be created on. It
// falls back to the global provider, a no-op until one is installed.
func (c *Component) MeterProvider() metric.MeterProvider {
	if c.meter != nil {
		return c.meter.provider
	}
	return otel.GetMeterProvider()
}

// MetricsHandler returns the /metrics handler, or nil when metrics are off.
func (c *Component) MetricsHandler() http.Handler {
	if c.meter == nil {
		return nil
	}
	return c.meter.Handler()
}

func (c *Component) Name() string { return "observability" }

func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Tracing.Enabled {
		return nil
	}
	tp, err := InitTracer(ctx, c.cfg.Tracing, c.res, c.log)
	if err != nil {
		return err
	}
	c.tracer = tp
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tracer != nil {
		errs = append(errs, c.tracer.Shutdown(ctx))
	}
	if c.meter != nil {
		errs = append(errs, c.meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (c *Component) Health(context.Context) component.Health {
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("tracing=%t metrics=%t", c.cfg.Tracing.Enabled, c.cfg.Metrics.Enabled)
	if c.cfg.Tracing.Enabled {
		details += " otlp=" + c.cfg.Tracing.Endpoint
	}
	return component.Description{Name: "Observability", Type: "telemetry", Details: details}
}
