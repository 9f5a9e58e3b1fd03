package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Open connects to dsn and returns a bun db using the dialect of driver.
// Accepted drivers are postgres (also pg, postgresql) and sqlite3 (also
// sqlite).
func Open(driver, dsn string) (*bun.DB, error) {
	name, dialect, err := resolveDriver(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}
	sqlDB, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", name, err)
	}
	if name == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	return bun.NewDB(sqlDB, dialect), nil
}

// DialectFor maps a driver name to the migrations dialect label.
func DialectFor(driver string) (string, error) {
	name, _, err := resolveDriver(driver)
	if err != nil {
		return "", err
	}
	if name == DriverSQLite {
		return "sqlite", nil
	}
	return "postgres", nil
}

func resolveDriver(driver string) (string, schema.Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pg":
		return DriverPostgres, pgdialect.New(), nil
	case "sqlite3", "sqlite":
		return DriverSQLite, sqlitedialect.New(), nil
	default:
		return "", nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}
