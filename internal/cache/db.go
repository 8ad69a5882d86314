// Package cache stores built chunk output keyed by a content hash of its
// inputs, so a rebuild with nothing changed can skip straight to generate.
// The local store is a SQLite database under the project's forge home
// directory; internal/cache/remote.go adds an optional HTTP-backed remote
// tier for sharing a cache across machines.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"forge/internal/logging"
)

// DB is a connection to the local build cache.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	path   string
}

// Open opens or creates the cache database at <forgeHome>/cache.db.
func Open(forgeHome string, logger *logging.Logger) (*DB, error) {
	if err := os.MkdirAll(forgeHome, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create forge home: %w", err)
	}

	dbPath := filepath.Join(forgeHome, "cache.db")
	existed := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-32000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, logger: logger, path: dbPath}

	if !existed {
		logger.Info("Creating local build cache", map[string]interface{}{"path": dbPath})
	}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS chunk_cache (
	cache_key   TEXT PRIMARY KEY,
	file_name   TEXT NOT NULL,
	code        BLOB NOT NULL,
	map         BLOB,
	created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS module_mtimes (
	module_id   TEXT PRIMARY KEY,
	mod_time    INTEGER NOT NULL
);
`
	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
