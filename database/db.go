package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/william251082/fileupload/logger"
)

// DB wraps a GORM connection pool.
type DB struct {
	gorm   *gorm.DB
	log    *logger.Logger
	mu     sync.Mutex
	closed bool
}

// Open connects with retry and configures the pool.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:         newGormLogger(log, cfg.SlowQueryThreshold, parseLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		gdb, err := gorm.Open(dialector, gormCfg)
		if err == nil {
			if err = configurePool(ctx, gdb, cfg); err == nil {
				log.Info("database connection established", map[string]interface{}{"driver": cfg.Driver, "attempt": attempt})
				return &DB{gorm: gdb, log: log}, nil
			}
		}
		lastErr = err

		if attempt == cfg.MaxRetries {
			break
		}
		backoff := time.Duration(attempt) * time.Second
		log.Warn("database connection attempt failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
			"backoff": backoff.String(),
		})
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database connection canceled: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", cfg.MaxRetries, lastErr)
}

// Wrap adopts an already opened GORM handle.
func Wrap(gdb *gorm.DB, log *logger.Logger) *DB {
	return &DB{gorm: gdb, log: log}
}

func configurePool(ctx context.Context, gdb *gorm.DB, cfg Config) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return nil
}

// Gorm returns the underlying handle.
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// WithContext returns a GORM session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.gorm.WithContext(ctx)
}

// Transaction runs fn in a transaction bound to ctx. fn's error rolls back.
func (d *DB) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.gorm.WithContext(ctx).Transaction(fn)
}

func (d *DB) PingContext(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the pool. Safe to call more than once.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	d.closed = true
	return sqlDB.Close()
}
