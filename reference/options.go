package reference

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/william251082/fileupload/keygen"
)

// Option customizes a Service.
type Option func(*options)

type options struct {
	meterProvider metric.MeterProvider
	keys          *keygen.Generator
}

// WithMeterProvider records metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithKeyGenerator overrides the storage key generator.
func WithKeyGenerator(g *keygen.Generator) Option {
	return func(o *options) { o.keys = g }
}
