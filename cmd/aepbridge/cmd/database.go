package cmd

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/aepbridge/internal/core/config"
	"github.com/solatis/aepbridge/internal/core/db"
)

// openDatabase opens --db-url, or the SQLite file in the configured data
// directory when the flag is empty.
func openDatabase(cfg *config.BridgeConfig) (*sqlx.DB, error) {
	url := dbURL
	if url == "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		url = db.SQLiteURL(cfg.DataDir)
	}
	conn, err := db.Open(url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return conn, nil
}

// openStore loads config, opens the database and checks it is migrated.
func openStore() (*sqlx.DB, *db.Queries, *config.BridgeConfig, error) {
	cfg, err := config.LoadConfig(configFile, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	conn, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := requireMigrated(conn); err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	queries, err := db.LoadQueries(conn)
	if err != nil {
		conn.Close()
		return nil, nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return conn, queries, cfg, nil
}

func requireMigrated(conn *sqlx.DB) error {
	status, err := db.MigrateStatus(conn)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, m := range status {
		if !m.Applied {
			return fmt.Errorf("migration %s not applied - run 'aepbridge migrate up' first", m.ID)
		}
	}
	return nil
}
