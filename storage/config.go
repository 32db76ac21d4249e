package storage

import (
	"errors"
	"fmt"

	"github.com/william251082/fileupload/security"
)

// Provider names.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "./var/storage"
	DefaultRegion   = "us-east-1"
	// DefaultPartSize is the multipart chunk size used by the S3 uploader.
	DefaultPartSize = int64(5 * 1024 * 1024)
)

// Config selects and configures the blob backend.
type Config struct {
	// Provider selects the backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider"`

	// BasePath is the root directory for the local provider.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	Bucket         string `mapstructure:"bucket" json:"bucket"`
	Region         string `mapstructure:"region" json:"region"`
	Endpoint       string `mapstructure:"endpoint" json:"endpoint"`
	AccessKey      string `mapstructure:"access_key" json:"-"`
	SecretKey      string `mapstructure:"secret_key" json:"-"`
	ForcePathStyle bool   `mapstructure:"force_path_style" json:"force_path_style"`
	PartSize       int64  `mapstructure:"part_size" json:"part_size"`

	// TLS customizes trust for self-hosted S3 endpoints.
	TLS security.TLSConfig `mapstructure:"tls" json:"tls"`

	// Resilience adds retries and a circuit breaker around the backend.
	Resilience ResilienceConfig `mapstructure:"resilience" json:"resilience"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.PartSize <= 0 {
		c.PartSize = DefaultPartSize
	}
	c.Resilience.Retry.ApplyDefaults()
}

// Validate checks the settings required by the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderS3:
		var errs []error
		if c.Bucket == "" {
			errs = append(errs, errors.New("bucket is required"))
		}
		if c.Region == "" {
			errs = append(errs, errors.New("region is required"))
		}
		if c.PartSize < DefaultPartSize {
			errs = append(errs, fmt.Errorf("part_size must be at least %d bytes", DefaultPartSize))
		}
		if (c.AccessKey == "") != (c.SecretKey == "") {
			errs = append(errs, errors.New("access_key and secret_key must be set together"))
		}
		if err := c.TLS.Validate(); err != nil {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("storage: invalid s3 config: %w", errors.Join(errs...))
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}
