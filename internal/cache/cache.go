package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"
)

// ErrMiss is returned by Get when no cached entry exists for a key.
var ErrMiss = errors.New("cache: miss")

// Entry is a cached chunk's rendered output.
type Entry struct {
	FileName string
	Code     []byte
	Map      []byte
}

// Key hashes a chunk's module source concatenation plus every relevant
// output option into a cache key — inputs that would change the rendered
// output must all be folded in here.
func Key(dialect string, sourcemap bool, moduleContents [][]byte) string {
	h := sha256.New()
	h.Write([]byte(dialect))
	if sourcemap {
		h.Write([]byte{1})
	}
	for _, c := range moduleContents {
		h.Write(c)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get fetches a cached entry, returning ErrMiss if absent.
func (db *DB) Get(key string) (*Entry, error) {
	row := db.conn.QueryRow(`SELECT file_name, code, map FROM chunk_cache WHERE cache_key = ?`, key)

	var e Entry
	var mapBytes []byte
	if err := row.Scan(&e.FileName, &e.Code, &mapBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, err
	}
	e.Map = mapBytes
	return &e, nil
}

// Put stores or replaces a cached entry.
func (db *DB) Put(key string, e Entry) error {
	_, err := db.conn.Exec(
		`INSERT INTO chunk_cache (cache_key, file_name, code, map, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET file_name=excluded.file_name, code=excluded.code, map=excluded.map, created_at=excluded.created_at`,
		key, e.FileName, e.Code, e.Map, time.Now().Unix(),
	)
	return err
}

// RecordModuleMTime stores the modification time a module was read at, so
// a future build can tell whether it needs to be reparsed.
func (db *DB) RecordModuleMTime(moduleID string, modTime time.Time) error {
	_, err := db.conn.Exec(
		`INSERT INTO module_mtimes (module_id, mod_time) VALUES (?, ?)
		 ON CONFLICT(module_id) DO UPDATE SET mod_time=excluded.mod_time`,
		moduleID, modTime.Unix(),
	)
	return err
}

// ModuleMTime returns the last recorded modification time for a module, or
// the zero time if none is recorded.
func (db *DB) ModuleMTime(moduleID string) (time.Time, error) {
	var unixSeconds int64
	err := db.conn.QueryRow(`SELECT mod_time FROM module_mtimes WHERE module_id = ?`, moduleID).Scan(&unixSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unixSeconds, 0), nil
}

// Clear removes every cached chunk entry, for `forge cache clear`.
func (db *DB) Clear() error {
	_, err := db.conn.Exec(`DELETE FROM chunk_cache`)
	return err
}
