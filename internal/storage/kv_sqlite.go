/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	applog "depthclock/internal/log"
	"depthclock/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	PrefsFileName = "prefs.sqlite"

	// schemaVersion tracks the local SQLite schema.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// value kinds stored next to each preference
const (
	kindBool   = "bool"
	kindFloat  = "float"
	kindInt    = "int"
	kindString = "string"
)

// SQLitePrefs is a Prefs backed by a single-table SQLite database.
type SQLitePrefs struct {
	db  *sql.DB
	log *slog.Logger

	mu      sync.Mutex
	lastErr error
}

// PrefsPath returns the database path inside dataDir.
func PrefsPath(dataDir string) string { return filepath.Join(dataDir, PrefsFileName) }

// OpenSQLitePrefs ensures that <dataDir>/prefs.sqlite exists, enables WAL mode,
// and brings the schema up to date.
func OpenSQLitePrefs(dataDir string) (*SQLitePrefs, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "prefs_open").With(
		slog.String("dir", dataDir),
	)
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		l.Error("create data dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := PrefsPath(dataDir)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("prefs ready", slog.String("path", path))
	return &SQLitePrefs{db: db, log: applog.WithComponent("storage")}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	var hadPrefs int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='prefs'`).Scan(&hadPrefs); err != nil {
		return fmt.Errorf("probe schema: %w", err)
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS prefs (
			key        TEXT PRIMARY KEY,
			kind       TEXT NOT NULL DEFAULT '',
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT ''
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A prefs table without a version row predates versioning.
		seed := schemaVersion
		if hadPrefs > 0 {
			seed = 1
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, seed, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// v1 stored untyped values without timestamps.
			cols, err := columns(ctx, db, "prefs")
			if err != nil {
				return err
			}
			if !cols["kind"] {
				stmts = append(stmts, `ALTER TABLE prefs ADD COLUMN kind TEXT NOT NULL DEFAULT '';`)
			}
			if !cols["updated_at"] {
				stmts = append(stmts, `ALTER TABLE prefs ADD COLUMN updated_at TEXT NOT NULL DEFAULT '';`)
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

func columns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+");")
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		out[name] = true
	}
	return out, rows.Err()
}

// Close releases the database.
func (p *SQLitePrefs) Close() error { return p.db.Close() }

// Err returns the last write error, if any.
func (p *SQLitePrefs) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *SQLitePrefs) fail(op, key string, err error) {
	p.log.Warn("prefs "+op+" failed", slog.String("key", key), slog.Any("err", err))
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

// raw returns the stored kind and text of key.
func (p *SQLitePrefs) raw(key string) (kind, value string, ok bool) {
	err := p.db.QueryRow(`SELECT kind, value FROM prefs WHERE key=?`, key).Scan(&kind, &value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			p.fail("read", key, err)
		}
		return "", "", false
	}
	return kind, value, true
}

// typed returns the text of key when its kind is want (or untyped, from schema v1).
func (p *SQLitePrefs) typed(key, want string) (string, bool) {
	kind, v, ok := p.raw(key)
	if !ok || (kind != "" && kind != want) {
		return "", false
	}
	return v, true
}

func (p *SQLitePrefs) BoolWithFallback(key string, fallback bool) bool {
	v, ok := p.typed(key, kindBool)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func (p *SQLitePrefs) FloatWithFallback(key string, fallback float64) float64 {
	v, ok := p.typed(key, kindFloat)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (p *SQLitePrefs) IntWithFallback(key string, fallback int) int {
	v, ok := p.typed(key, kindInt)
	if !ok {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func (p *SQLitePrefs) StringWithFallback(key, fallback string) string {
	v, ok := p.typed(key, kindString)
	if !ok {
		return fallback
	}
	return v
}

func (p *SQLitePrefs) SetBool(key string, value bool) {
	p.write(op{key: key, val: value})
}
func (p *SQLitePrefs) SetFloat(key string, value float64) {
	p.write(op{key: key, val: value})
}
func (p *SQLitePrefs) SetInt(key string, value int) {
	p.write(op{key: key, val: value})
}
func (p *SQLitePrefs) SetString(key, value string) {
	p.write(op{key: key, val: value})
}
func (p *SQLitePrefs) RemoveValue(key string) {
	p.write(op{key: key, remove: true})
}

func (p *SQLitePrefs) write(o op) {
	if err := p.exec(context.Background(), []op{o}); err != nil {
		p.fail("write", o.key, err)
	}
}

// Batch applies all writes of fn in one transaction.
func (p *SQLitePrefs) Batch(fn func(Prefs)) error {
	st := newStaged(p)
	fn(st)
	if err := p.exec(context.Background(), st.ops); err != nil {
		p.fail("batch", "", err)
		return err
	}
	return nil
}

// Clear deletes every preference.
func (p *SQLitePrefs) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM prefs`); err != nil {
		return fmt.Errorf("clear prefs: %w", err)
	}
	return nil
}

func (p *SQLitePrefs) exec(ctx context.Context, ops []op) error {
	if len(ops) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, o := range ops {
		if o.remove {
			if _, err := tx.ExecContext(ctx, `DELETE FROM prefs WHERE key=?`, o.key); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("delete %s: %w", o.key, err)
			}
			continue
		}
		kind, text := encode(o.val)
		if _, err := tx.ExecContext(ctx, `INSERT INTO prefs(key, kind, value, updated_at) VALUES(?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET kind=excluded.kind, value=excluded.value, updated_at=excluded.updated_at`,
			o.key, kind, text, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %s: %w", o.key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func encode(v any) (kind, text string) {
	switch x := v.(type) {
	case bool:
		return kindBool, strconv.FormatBool(x)
	case float64:
		return kindFloat, strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return kindInt, strconv.Itoa(x)
	case string:
		return kindString, x
	}
	return "", fmt.Sprint(v)
}

// Dump returns every stored preference as key -> text, for diagnostics.
func (p *SQLitePrefs) Dump(ctx context.Context) (map[string]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT key, value FROM prefs ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("dump prefs: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan prefs: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
