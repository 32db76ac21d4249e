package server

import (
	"fmt"

	"github.com/william251082/fileupload/server/middleware"
)

// Config holds HTTP server configuration. Timeouts are in seconds.
type Config struct {
	Host            string                     `mapstructure:"host"`
	Port            int                        `mapstructure:"port"`
	ReadTimeout     int                        `mapstructure:"read_timeout"`
	WriteTimeout    int                        `mapstructure:"write_timeout"`
	IdleTimeout     int                        `mapstructure:"idle_timeout"`
	ShutdownTimeout int                        `mapstructure:"shutdown_timeout"`
	MaxBodySize     string                     `mapstructure:"max_body_size"`
	CORS            middleware.CORSConfig      `mapstructure:"cors"`
	RateLimit       middleware.RateLimitConfig `mapstructure:"rate_limit"`
}

// ApplyDefaults sets defaults for unset fields. The body cap leaves room for a
// 5 MB file sent base64-encoded inside JSON.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID}
	}
	if len(c.CORS.ExposedHeaders) == 0 {
		c.CORS.ExposedHeaders = []string{"Content-Disposition", middleware.HeaderRequestID}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	for name, v := range map[string]int{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"idle_timeout":     c.IdleTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if v < 0 {
			return fmt.Errorf("server.%s must be non-negative (got: %d)", name, v)
		}
	}
	return nil
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
