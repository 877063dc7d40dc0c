// Package app wires the database, configuration, and command handler for
// the CLI and the server.
package app

import (
	"fmt"

	"subline/internal/config"
	"subline/internal/db"
	"subline/internal/engine"
	"subline/internal/logger"
	"subline/internal/migrate"
)

// Context holds the shared runtime of one workspace.
type Context struct {
	Engine *engine.Engine
	Config *config.Config
}

// Open loads the workspace config, opens the database, applies migrations,
// and builds the command handler. The returned close func releases the
// database handle.
func Open(workspace string) (*Context, func() error, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	return &Context{
		Engine: engine.New(conn, cfg, log),
		Config: cfg,
	}, conn.Close, nil
}
