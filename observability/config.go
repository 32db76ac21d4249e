package observability

import "fmt"

// Config groups tracing and metrics settings.
type Config struct {
	Tracing TracerConfig `mapstructure:"tracing"`
	Metrics MeterConfig  `mapstructure:"metrics"`
}

// TracerConfig configures the OTLP trace exporter.
type TracerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP collector host:port.
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
	// SampleRate is the parent-based sampling ratio in [0, 1].
	SampleRate float64 `mapstructure:"sample_rate"`
}

// MeterConfig configures the Prometheus metrics pipeline.
type MeterConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Namespace prefixes every exported metric name.
	Namespace string `mapstructure:"namespace"`
}

func (c *Config) ApplyDefaults() {
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "fileupload"
	}
}

func (c *Config) Validate() error {
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("observability.tracing.sample_rate must be within [0, 1] (got: %v)", c.Tracing.SampleRate)
	}
	return nil
}
