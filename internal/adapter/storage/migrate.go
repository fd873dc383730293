package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate creates the catalog, order and account tables if they do not exist.
// Statements run one at a time because the MySQL driver rejects multi-statement
// Exec unless the DSN enables it.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var file string
	switch driver {
	case DriverMySQL:
		file = "schema/mysql.sql"
	case DriverSQLite:
		file = "schema/sqlite.sql"
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}

	data, err := schemaFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	for _, stmt := range strings.Split(string(data), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
