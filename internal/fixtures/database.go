package fixtures

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"testbackend/internal/config"
)

// DatabaseChecker looks up whether a database exists on the server
type DatabaseChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// MySQLChecker checks databases on a MySQL server
type MySQLChecker struct {
	dsn string
}

// NewMySQLChecker creates a checker for the server at dsn (no database selected)
func NewMySQLChecker(dsn string) *MySQLChecker {
	return &MySQLChecker{dsn: dsn}
}

// Exists reports whether the database name exists
func (m *MySQLChecker) Exists(ctx context.Context, name string) (bool, error) {
	if !isValidDatabaseName(name) {
		return false, fmt.Errorf("invalid database name: %s", name)
	}

	db, err := sql.Open("mysql", m.dsn)
	if err != nil {
		return false, fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return false, fmt.Errorf("failed to ping database server: %w", err)
	}

	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	if err := db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", name, err)
	}
	return exists, nil
}

// ConfiguredChecker looks the server up from the environment on every call,
// so settings from .env apply even though it is built before they load.
// Without a configured server every database is assumed to exist.
type ConfiguredChecker struct {
	config *config.Config
}

// NewConfiguredChecker creates a new ConfiguredChecker
func NewConfiguredChecker(cfg *config.Config) *ConfiguredChecker {
	return &ConfiguredChecker{config: cfg}
}

// Exists implements DatabaseChecker
func (c *ConfiguredChecker) Exists(ctx context.Context, name string) (bool, error) {
	dsn := c.config.GetDatabaseDSN()
	if dsn == "" {
		return true, nil
	}
	return NewMySQLChecker(dsn).Exists(ctx, name)
}

// isValidDatabaseName validates database name (basic check)
func isValidDatabaseName(name string) bool {
	if len(name) == 0 || len(name) > 64 {
		return false
	}
	invalidChars := []string{"'", "\"", ";", "--", "/*", "*/", "`"}
	for _, char := range invalidChars {
		if strings.Contains(name, char) {
			return false
		}
	}
	return true
}
