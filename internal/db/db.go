// Package db opens the workspace-scoped sqlite database.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const defaultDBName = "subline.db"

type Config struct {
	Workspace string
}

func dbPath(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, ".subline", defaultDBName)
}

// EnsureWorkspace creates the workspace directory if missing.
func EnsureWorkspace(workspace string) (string, error) {
	path := filepath.Join(workspace, ".subline")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// pragmas applied on every connection. The busy timeout keeps concurrent
// readers waiting out a save transaction instead of failing with SQLITE_BUSY.
var pragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

func dsn(path string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "file:%s?cache=shared", path)
	for _, p := range pragmas {
		fmt.Fprintf(&b, "&_pragma=%s", p)
	}
	return b.String()
}

// Open opens the sqlite database, creating the workspace if needed.
func Open(cfg Config) (*sql.DB, error) {
	if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
		return nil, err
	}
	conn, err := sql.Open("sqlite", dsn(dbPath(cfg.Workspace)))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Path returns the db path for the workspace.
func Path(workspace string) string {
	return dbPath(workspace)
}
