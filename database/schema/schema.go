// Package schema embeds the SQL migrations for every supported driver.
package schema

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/william251082/fileupload/database"
	"github.com/william251082/fileupload/database/migration"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// FS returns the embedded migration tree. Each driver has its own directory.
func FS() fs.FS { return files }

// Dir returns the migration directory for a database driver.
func Dir(driver string) (string, error) {
	switch driver {
	case database.DriverSQLite:
		return "sqlite", nil
	case database.DriverPostgres:
		return "postgres", nil
	}
	return "", fmt.Errorf("schema: no migrations for driver %q", driver)
}

// Up applies every pending migration for cfg.Driver on db.
func Up(db *database.DB, cfg database.Config) error {
	dir, driver, err := resolve(cfg)
	if err != nil {
		return err
	}
	return migration.Up(db.Gorm(), files, dir, driver)
}

// Down rolls the schema back completely.
func Down(db *database.DB, cfg database.Config) error {
	dir, driver, err := resolve(cfg)
	if err != nil {
		return err
	}
	return migration.Down(db.Gorm(), files, dir, driver)
}

// Version reports the applied schema version.
func Version(db *database.DB, cfg database.Config) (uint, bool, error) {
	dir, driver, err := resolve(cfg)
	if err != nil {
		return 0, false, err
	}
	return migration.Version(db.Gorm(), files, dir, driver)
}

func resolve(cfg database.Config) (string, migration.DriverFunc, error) {
	dir, err := Dir(cfg.Driver)
	if err != nil {
		return "", nil, err
	}
	driver, err := database.MigrationDriver(cfg)
	if err != nil {
		return "", nil, err
	}
	return dir, driver, nil
}
