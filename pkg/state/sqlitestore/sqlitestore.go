// Package sqlitestore keeps option schemas in a single SQLite database, one
// row per user value.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver" // database/sql driver
	_ "github.com/ncruces/go-sqlite3/embed"  // bundled SQLite build

	"github.com/goliatone/go-wsoptions/pkg/state"
)

const createTable = `CREATE TABLE IF NOT EXISTS settings (
	schema     TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	value      TEXT    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (schema, key)
)`

// DB is a settings database shared by the backends of several schemas.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlitestore: database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("sqlitestore: create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open database: %w", err)
	}
	// A single connection serialises writers and keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range append(pragmas, createTable) {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlitestore: exec %q: %w", pragma, err)
		}
	}
	return &DB{db: db}, nil
}

// Close closes the database. Backends opened from it stop working.
func (d *DB) Close() error {
	return d.db.Close()
}

// Backend is a state.Backend for one schema. User values are cached in
// memory and refreshed by Write and Reload.
type Backend struct {
	db     *sql.DB
	schema string

	// syncMu orders database round trips (Write, Reload) against each other.
	// It is always taken before the pooled connection, and mu is only taken
	// once the connection has been returned.
	syncMu sync.Mutex

	mu       sync.RWMutex
	defaults map[string]any
	values   map[string]any

	watchers state.Watchers
}

var _ state.Backend = (*Backend)(nil)

// Backend loads the stored values of schema. defaults declares the keys.
func (d *DB) Backend(ctx context.Context, schema string, defaults map[string]any) (*Backend, error) {
	if schema == "" {
		return nil, fmt.Errorf("sqlitestore: schema must not be empty")
	}
	b := &Backend{
		db:       d.db,
		schema:   schema,
		defaults: make(map[string]any, len(defaults)),
		values:   map[string]any{},
	}
	for key, value := range defaults {
		b.defaults[key] = state.CloneValue(value)
	}
	if _, err := b.Reload(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) Schema() string { return b.schema }

func (b *Backend) UserValue(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.values[key]
	if !ok {
		return nil, false
	}
	return state.CloneValue(value), true
}

func (b *Backend) Default(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.defaults[key]
	if !ok {
		return nil, false
	}
	return state.CloneValue(value), true
}

// Write applies changes in one transaction.
func (b *Backend) Write(ctx context.Context, changes []state.Change) error {
	if len(changes) == 0 {
		return nil
	}
	b.mu.RLock()
	for _, change := range changes {
		if _, ok := b.defaults[change.Key]; !ok {
			b.mu.RUnlock()
			return fmt.Errorf("%w: %s/%s", state.ErrUnknownKey, b.schema, change.Key)
		}
	}
	b.mu.RUnlock()

	b.syncMu.Lock()
	if err := b.commit(ctx, changes); err != nil {
		b.syncMu.Unlock()
		return err
	}
	b.mu.Lock()
	for _, change := range changes {
		if change.Reset {
			delete(b.values, change.Key)
			continue
		}
		b.values[change.Key] = state.CloneValue(change.Value)
	}
	b.mu.Unlock()
	b.syncMu.Unlock()

	b.watchers.Notify(state.ChangedKeys(changes))
	return nil
}

func (b *Backend) commit(ctx context.Context, changes []state.Change) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().Unix()
	for _, change := range changes {
		if change.Reset {
			if _, err = tx.ExecContext(ctx, `DELETE FROM settings WHERE schema = ? AND key = ?`, b.schema, change.Key); err != nil {
				return fmt.Errorf("sqlitestore: reset %s: %w", change.Key, err)
			}
			continue
		}
		encoded, encErr := json.Marshal(change.Value)
		if encErr != nil {
			return fmt.Errorf("sqlitestore: encode %s: %w", change.Key, encErr)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO settings (schema, key, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (schema, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			b.schema, change.Key, string(encoded), now)
		if err != nil {
			return fmt.Errorf("sqlitestore: write %s: %w", change.Key, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlitestore: commit: %w", err)
	}
	return nil
}

func (b *Backend) Watch(fn state.WatchFunc) func() {
	return b.watchers.Add(fn)
}

// WatchCount reports the number of live watches.
func (b *Backend) WatchCount() int {
	return b.watchers.Len()
}

// Reload re-reads the schema's rows, picking up writes made through other
// connections, and notifies watchers of the keys whose value changed. Rows
// for undeclared keys or with undecodable values are ignored.
func (b *Backend) Reload(ctx context.Context) ([]string, error) {
	b.syncMu.Lock()
	rows, err := b.readRows(ctx)
	if err != nil {
		b.syncMu.Unlock()
		return nil, err
	}

	b.mu.Lock()
	next := map[string]any{}
	for key, text := range rows {
		def, ok := b.defaults[key]
		if !ok {
			continue
		}
		if value, ok := decode(text, def); ok {
			next[key] = value
		}
	}
	changed := state.DiffKeys(b.values, next)
	b.values = next
	b.mu.Unlock()
	b.syncMu.Unlock()

	b.watchers.Notify(changed)
	return changed, nil
}

// readRows returns the raw key/value rows of the schema. The connection is
// released before it returns.
func (b *Backend) readRows(ctx context.Context) (map[string]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT key, value FROM settings WHERE schema = ?`, b.schema)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query %s: %w", b.schema, err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var key, text string
		if err := rows.Scan(&key, &text); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan: %w", err)
		}
		out[key] = text
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: rows: %w", err)
	}
	return out, nil
}

// decode unmarshals text into the Go type of def.
func decode(text string, def any) (any, bool) {
	var target any
	switch def.(type) {
	case bool:
		target = new(bool)
	case int:
		target = new(int)
	case string:
		target = new(string)
	case []string:
		target = &[]string{}
	case map[string]string:
		target = &map[string]string{}
	default:
		return nil, false
	}
	if err := json.Unmarshal([]byte(text), target); err != nil {
		return nil, false
	}
	switch v := target.(type) {
	case *bool:
		return *v, true
	case *int:
		return *v, true
	case *string:
		return *v, true
	case *[]string:
		if *v == nil {
			return []string{}, true
		}
		return *v, true
	case *map[string]string:
		if *v == nil {
			return map[string]string{}, true
		}
		return *v, true
	}
	return nil, false
}
