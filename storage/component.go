package storage

import (
	"context"
	"fmt"

	"github.com/william251082/fileupload/component"
	"github.com/william251082/fileupload/logger"
)

const healthProbeKey = ".health-probe"

// Component owns the configured backend for the component registry.
type Component struct {
	cfg     Config
	log     *logger.Logger
	backend Backend
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a storage component. The backend is built on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log}
}

// Backend returns the started backend, or nil before Start.
func (c *Component) Backend() Backend {
	return c.backend
}

func (c *Component) Name() string { return "storage" }

func (c *Component) Start(ctx context.Context) error {
	b, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	if c.cfg.Resilience.Enabled {
		b = WithResilience(b, c.cfg.Resilience, c.log)
	}
	c.backend = b
	return nil
}

func (c *Component) Stop(context.Context) error {
	c.backend = nil
	return nil
}

// Health issues an existence check against a probe key.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.backend == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	if _, err := c.backend.Exists(ctx, healthProbeKey); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("probe failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	details := "provider=" + c.cfg.Provider
	switch c.cfg.Provider {
	case ProviderLocal:
		details += " path=" + c.cfg.BasePath
	case ProviderS3:
		details += " bucket=" + c.cfg.Bucket
		if c.cfg.Endpoint != "" {
			details += " endpoint=" + c.cfg.Endpoint
		}
	}
	if c.cfg.Resilience.Enabled {
		details += " resilience=on"
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}
