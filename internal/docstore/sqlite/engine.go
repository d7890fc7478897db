// Package sqlite provides a SQLite docstore engine for single-file deployments.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/uniquefilms/uniquefilms-server/internal/docstore"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Engine stores documents in a single key/value table.
type Engine struct {
	db *sql.DB

	// SQLite allows one writer; serializing updates here avoids SQLITE_BUSY
	// on read-to-write upgrades inside a transaction.
	writeMu sync.Mutex
}

// Open opens a SQLite-backed document store at path.
func Open(path string, logger *slog.Logger, opts ...docstore.Option) (*docstore.Store, error) {
	engine, err := NewEngine(path)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("SQLite database opened successfully", "path", path)
	}
	return docstore.New(engine, logger, opts...), nil
}

// NewEngine opens the database at path, configures WAL mode and applies the schema.
func NewEngine(path string) (*Engine, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Engine{db: db}, nil
}

// View runs fn in a read-only transaction.
func (e *Engine) View(ctx context.Context, fn func(docstore.Txn) error) error {
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	return fn(&txn{ctx: ctx, tx: tx})
}

// Update runs fn in a write transaction.
func (e *Engine) Update(ctx context.Context, fn func(docstore.Txn) error) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}

	if err := fn(&txn{ctx: ctx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (e *Engine) Close() error {
	return e.db.Close()
}

type txn struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *txn) Get(key string) ([]byte, error) {
	var value []byte
	err := t.tx.QueryRowContext(t.ctx, `SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (t *txn) Set(key string, value []byte) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO documents (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (t *txn) Delete(key string) error {
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (t *txn) Scan(prefix string, fn func(key string, value []byte) error) error {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT key, value FROM documents WHERE key >= ? AND key < ? ORDER BY key`,
		prefix, docstore.PrefixEnd(prefix))
	if err != nil {
		return fmt.Errorf("scan %s: %w", prefix, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return rows.Err()
}
