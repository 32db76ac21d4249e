// Package migration applies versioned SQL migrations with golang-migrate.
//
// Files follow the VERSION_name.up.sql / VERSION_name.down.sql convention and
// are read from any fs.FS, usually an embed.FS.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// DriverFunc creates a migrate database driver from the shared *sql.DB.
type DriverFunc func(*sql.DB) (database.Driver, error)

// Up applies every pending migration. Having nothing to apply is not an error.
func Up(gormDB *gorm.DB, files fs.FS, dir string, driver DriverFunc) error {
	m, err := newMigrator(gormDB, files, dir, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back every applied migration.
func Down(gormDB *gorm.DB, files fs.FS, dir string, driver DriverFunc) error {
	m, err := newMigrator(gormDB, files, dir, driver)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version returns the current schema version. A database with no applied
// migrations reports version 0.
func Version(gormDB *gorm.DB, files fs.FS, dir string, driver DriverFunc) (version uint, dirty bool, err error) {
	m, err := newMigrator(gormDB, files, dir, driver)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// newMigrator binds golang-migrate to the connection pool owned by gormDB.
// The returned migrator must not be closed: that would close the shared pool.
func newMigrator(gormDB *gorm.DB, files fs.FS, dir string, driverFunc DriverFunc) (*migrate.Migrate, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	driver, err := driverFunc(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("create database driver: %w", err)
	}
	source, err := iofs.New(files, dir)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "database", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
