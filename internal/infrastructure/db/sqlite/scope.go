// Package sqlite stores client session keys in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS client_storage (
    namespace  TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      TEXT NOT NULL,
    expires_at INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (namespace, key)
);
`

// Scope is a storage scope backed by one SQLite table. Expired rows are
// skipped on read and purged on write.
type Scope struct {
	db        *sql.DB
	namespace string
	now       func() time.Time
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path, namespace string) (*Scope, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Scope{db: db, namespace: namespace, now: time.Now}, nil
}

func (s *Scope) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM client_storage WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	if expiresAt > 0 && s.now().Unix() >= expiresAt {
		return "", false, nil
	}
	return value, true, nil
}

func (s *Scope) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	now := s.now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM client_storage WHERE expires_at > 0 AND expires_at <= ?`, now.Unix(),
	); err != nil {
		return fmt.Errorf("sqlite purge: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO client_storage (namespace, key, value, expires_at)
		VALUES (?, ?, ?, ?)`,
		s.namespace, key, value, expiresAt,
	); err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	return tx.Commit()
}

func (s *Scope) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys)+1)
	args = append(args, s.namespace)
	for _, k := range keys {
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	q := `DELETE FROM client_storage WHERE namespace = ? AND key IN (` + placeholders + `)`
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("sqlite remove: %w", err)
	}
	return nil
}

func (s *Scope) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Scope) Close() error {
	return s.db.Close()
}
