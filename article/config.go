package article

import (
	"fmt"
	"strings"

	"github.com/william251082/fileupload/util"
)

const (
	// ImagePrefix is the public storage namespace for article images.
	ImagePrefix         = "article_image"
	DefaultImageMaxSize = "5MB"
	// PublicMount is the URL path the public namespace is served under.
	PublicMount = "/uploads"
)

type Config struct {
	ImageMaxSize string `mapstructure:"image_max_size" json:"image_max_size"`
	// PublicBaseURL prefixes public image paths, e.g. a CDN origin. Empty
	// yields host-relative paths.
	PublicBaseURL string `mapstructure:"public_base_url" json:"public_base_url"`
}

func (c *Config) ApplyDefaults() {
	if c.ImageMaxSize == "" {
		c.ImageMaxSize = DefaultImageMaxSize
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
}

func (c *Config) Validate() error {
	if util.ParseSize(c.ImageMaxSize, 0) <= 0 {
		return fmt.Errorf("articles: invalid image_max_size %q", c.ImageMaxSize)
	}
	return nil
}
