package database

import (
	"database/sql"
	"fmt"

	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/william251082/fileupload/database/migration"
)

// Dialector returns the GORM dialector for cfg.Driver.
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return sqlite.Open(cfg.DSN), nil
	case DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	}
	return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
}

// MigrationDriver returns the golang-migrate driver constructor for cfg.Driver.
func MigrationDriver(cfg Config) (migration.DriverFunc, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return func(db *sql.DB) (migratedb.Driver, error) {
			return migratesqlite.WithInstance(db, &migratesqlite.Config{})
		}, nil
	case DriverPostgres:
		return func(db *sql.DB) (migratedb.Driver, error) {
			return migratepg.WithInstance(db, &migratepg.Config{})
		}, nil
	}
	return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
}
