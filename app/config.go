package app

import (
	"errors"

	"github.com/william251082/fileupload/article"
	"github.com/william251082/fileupload/auth"
	"github.com/william251082/fileupload/config"
	"github.com/william251082/fileupload/database"
	"github.com/william251082/fileupload/observability"
	"github.com/william251082/fileupload/reference"
	"github.com/william251082/fileupload/server"
	"github.com/william251082/fileupload/storage"
	"github.com/william251082/fileupload/version"
)

// ServiceName names the process in logs, telemetry and config file lookup.
const ServiceName = "fileupload"

// Config is the complete service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config            `mapstructure:"server"`
	Database      database.Config          `mapstructure:"database"`
	Storage       storage.Config           `mapstructure:"storage"`
	References    reference.Config         `mapstructure:"references"`
	Download      reference.DownloadConfig `mapstructure:"download"`
	Articles      article.Config           `mapstructure:"articles"`
	Auth          auth.Config              `mapstructure:"auth"`
	Observability observability.Config     `mapstructure:"observability"`
}

// Load reads config.yml, .env and the environment into a Config. Defaults
// and validation run later in bootstrap.NewApp.
func Load(opts ...config.LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.References.ApplyDefaults()
	c.Download.ApplyDefaults()
	c.Articles.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if !c.Auth.Enabled && c.IsProduction() {
		return errors.New("auth: authentication cannot be disabled in production")
	}
	// Each section prefixes its own errors.
	for _, section := range []interface{ Validate() error }{
		&c.Server, &c.Database, &c.Storage, &c.References,
		&c.Download, &c.Articles, &c.Auth, &c.Observability,
	} {
		if err := section.Validate(); err != nil {
			return err
		}
	}
	return nil
}
