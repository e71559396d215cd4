package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"

	"roster-server-go/query"
)

//go:embed schema.sql
var schemaSQL string

// driverName is go-sqlite3 with the case folding function and the connection pragmas
// applied to every connection.
const driverName = "sqlite3_roster"

// fileMaxOpenConns bounds the pool for file databases. Under WAL a reader never blocks
// the writer, and busy_timeout queues competing writers.
const fileMaxOpenConns = 4

// connPragmas are per-connection settings. journal_mode is stored in the file and is set
// once by Open.
var connPragmas = []string{
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			for _, pragma := range connPragmas {
				if _, err := conn.Exec(pragma, nil); err != nil {
					return fmt.Errorf("failed to execute %q: %w", pragma, err)
				}
			}
			return conn.RegisterFunc(query.FoldFunc, casefold, true)
		},
	})
}

// casefold applies Unicode full case folding to text values. NULL stays NULL.
func casefold(v any) any {
	switch s := v.(type) {
	case string:
		return cases.Fold().String(s)
	case []byte:
		return cases.Fold().String(string(s))
	default:
		return v
	}
}

// Open creates or opens the SQLite database at path and applies the schema.
// The schema is applied with CREATE ... IF NOT EXISTS, so Open is idempotent.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every connection to ":memory:" opens its own database.
	conns := fileMaxOpenConns
	if isMemory(path) {
		conns = 1
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
