package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod is one of the HMAC algorithms the service accepts.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

const minSecretLen = 32

// Config configures the token service.
type Config struct {
	// Secret is the shared HMAC key. At least 32 bytes.
	Secret string `mapstructure:"secret"`

	// Method defaults to HS256.
	Method SigningMethod `mapstructure:"method"`

	Issuer   string   `mapstructure:"issuer"`
	Audience []string `mapstructure:"audience"`

	// AccessTokenTTL is the lifetime given to tokens minted by GenerateAccess.
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`

	// Leeway tolerates clock skew when checking exp and nbf.
	Leeway time.Duration `mapstructure:"leeway"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = time.Hour
	}
}

// Validate checks the key and algorithm.
func (c *Config) Validate() error {
	switch c.Method {
	case HS256, HS384, HS512:
	default:
		return fmt.Errorf("unsupported signing method %q", c.Method)
	}
	if c.Secret == "" {
		return errors.New("secret is required")
	}
	if len(c.Secret) < minSecretLen {
		return fmt.Errorf("secret must be at least %d bytes", minSecretLen)
	}
	return nil
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return gojwt.SigningMethodHS256
	}
}

func (c *Config) key() []byte { return []byte(c.Secret) }
