package reference

import (
	"errors"
	"fmt"
	"time"

	"github.com/william251082/fileupload/util"
)

// Download strategies.
const (
	StrategyProxy    = "proxy"
	StrategyRedirect = "redirect"
	StrategyAuto     = "auto"
)

const (
	DefaultMaxSize     = "5MB"
	DefaultDownloadTTL = 30 * time.Minute
	// MaxDownloadTTL is the longest lifetime a SigV4 presigned URL accepts.
	MaxDownloadTTL = 7 * 24 * time.Hour
	// StoragePrefix is the key namespace reference blobs are written under.
	StoragePrefix = "article_reference"
)

// DefaultAllowedMimeTypes are the media types accepted for references.
var DefaultAllowedMimeTypes = []string{
	"image/*",
	"application/pdf",
	"application/msword",
	"application/vnd.ms-excel",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
}

// Config holds the upload limits.
type Config struct {
	// MaxSize is a human size such as "5MB".
	MaxSize          string   `mapstructure:"max_size" json:"max_size"`
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types" json:"allowed_mime_types"`
	// StagingDir receives decoded base64 uploads. Empty uses os.TempDir.
	StagingDir string `mapstructure:"staging_dir" json:"staging_dir"`
}

func (c *Config) ApplyDefaults() {
	if c.MaxSize == "" {
		c.MaxSize = DefaultMaxSize
	}
	if len(c.AllowedMimeTypes) == 0 {
		c.AllowedMimeTypes = append([]string(nil), DefaultAllowedMimeTypes...)
	}
}

func (c *Config) Validate() error {
	if c.MaxSizeBytes() <= 0 {
		return fmt.Errorf("references: invalid max_size %q", c.MaxSize)
	}
	for _, p := range c.AllowedMimeTypes {
		if !validPattern(p) {
			return fmt.Errorf("references: invalid mime pattern %q", p)
		}
	}
	return nil
}

// MaxSizeBytes returns MaxSize in bytes, or 0 when it does not parse.
func (c *Config) MaxSizeBytes() int64 {
	return util.ParseSize(c.MaxSize, 0)
}

// DownloadConfig selects how downloads are served.
type DownloadConfig struct {
	// Strategy is proxy, redirect or auto. Auto redirects when the backend
	// can presign and proxies otherwise.
	Strategy string        `mapstructure:"strategy" json:"strategy"`
	TTL      time.Duration `mapstructure:"ttl" json:"ttl"`
}

func (c *DownloadConfig) ApplyDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyAuto
	}
	if c.TTL == 0 {
		c.TTL = DefaultDownloadTTL
	}
}

func (c *DownloadConfig) Validate() error {
	var errs []error
	switch c.Strategy {
	case StrategyProxy, StrategyRedirect, StrategyAuto:
	default:
		errs = append(errs, fmt.Errorf("unknown strategy %q", c.Strategy))
	}
	if c.TTL <= 0 || c.TTL > MaxDownloadTTL {
		errs = append(errs, fmt.Errorf("ttl must be in (0, %s], got %s", MaxDownloadTTL, c.TTL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("download: %w", errors.Join(errs...))
	}
	return nil
}
