package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/william251082/fileupload/component"
	"github.com/william251082/fileupload/database/migration"
	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/util"
)

// dsnVisiblePrefix is how much of the DSN the start-up summary shows.
const dsnVisiblePrefix = 12

// Component owns the connection pool for the component registry.
type Component struct {
	cfg        Config
	log        *logger.Logger
	db         *DB
	migrations fs.FS
	migDir     string
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a database component. The pool is opened on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("database")}
}

// WithMigrations sets the SQL migrations applied on Start when AutoMigrate is on.
func (c *Component) WithMigrations(files fs.FS, dir string) *Component {
	c.migrations = files
	c.migDir = dir
	return c
}

// DB returns the opened pool, or nil before Start.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "database" }

func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.db = db

	if c.cfg.AutoMigrate && c.migrations != nil {
		driver, err := MigrationDriver(c.cfg)
		if err != nil {
			return err
		}
		if err := migration.Up(db.Gorm(), c.migrations, c.migDir, driver); err != nil {
			return fmt.Errorf("database auto-migrate: %w", err)
		}
		c.log.Info("migrations applied", map[string]interface{}{"dir": c.migDir})
	}
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	if c.db == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	if err := c.db.PingContext(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("driver=%s dsn=%s pool=%d/%d",
		c.cfg.Driver, util.MaskSecret(c.cfg.DSN, dsnVisiblePrefix), c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if c.cfg.AutoMigrate {
		details += " auto-migrate=on"
	}
	return component.Description{Name: "Database", Type: "database", Details: details}
}
