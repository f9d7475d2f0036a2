package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/storage/migrations"
)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite implements Gateway on a single SQLite table of JSON documents.
type SQLite struct {
	db *sql.DB
	q  dbtx
	tx bool
}

// goose keeps its dialect and base FS in package globals.
var migrateMu sync.Mutex

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return &SQLite{db: conn, q: conn}, nil
}

func migrate(ctx context.Context, conn *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, conn, ".")
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn with a gateway bound to one transaction. It commits when fn
// returns nil and rolls back otherwise.
func (s *SQLite) WithTx(ctx context.Context, fn func(ctx context.Context, gw Gateway) error) (err error) {
	if s.tx {
		return fn(ctx, s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence("begin tx", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = persistence("commit", cerr)
		}
	}()
	return fn(ctx, &SQLite{db: s.db, q: tx, tx: true})
}

// GetAll returns every document of p ordered by insertion.
func (s *SQLite) GetAll(ctx context.Context, p Partition) ([]Document, error) {
	if err := checkPartition(p); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, `SELECT body FROM documents WHERE partition = ? ORDER BY seq`, string(p))
	if err != nil {
		return nil, persistence("get all", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, persistence("scan", err)
		}
		doc, err := decode([]byte(body))
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("get all", err)
	}
	return out, nil
}

// GetByID returns one document.
func (s *SQLite) GetByID(ctx context.Context, p Partition, id string) (Document, error) {
	if err := checkPartition(p); err != nil {
		return nil, err
	}
	var body string
	err := s.q.QueryRowContext(ctx, `SELECT body FROM documents WHERE partition = ? AND id = ?`, string(p), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(p, id)
	}
	if err != nil {
		return nil, persistence("get by id", err)
	}
	return decode([]byte(body))
}

// Insert stores a new document.
func (s *SQLite) Insert(ctx context.Context, p Partition, doc Document) (string, error) {
	if err := checkPartition(p); err != nil {
		return "", err
	}
	id, body, err := prepareInsert(doc)
	if err != nil {
		return "", err
	}
	_, err = s.q.ExecContext(ctx, `INSERT INTO documents (partition, id, body) VALUES (?, ?, ?)`, string(p), id, string(body))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return "", fmt.Errorf("storage: %s/%s: %w", p, id, apperr.ErrAlreadyExists)
		}
		return "", persistence("insert", err)
	}
	return id, nil
}

// UpdateByID reads, patches and rewrites one document inside a transaction.
func (s *SQLite) UpdateByID(ctx context.Context, p Partition, id string, patch Patch) error {
	if err := checkPartition(p); err != nil {
		return err
	}
	return s.WithTx(ctx, func(ctx context.Context, gw Gateway) error {
		tx := gw.(*SQLite)
		doc, err := tx.GetByID(ctx, p, id)
		if err != nil {
			return err
		}
		_, body, err := prepareInsert(patch.Apply(doc))
		if err != nil {
			return err
		}
		if _, err := tx.q.ExecContext(ctx, `UPDATE documents SET body = ? WHERE partition = ? AND id = ?`, string(body), string(p), id); err != nil {
			return persistence("update", err)
		}
		return nil
	})
}

// DeleteByID removes one document.
func (s *SQLite) DeleteByID(ctx context.Context, p Partition, id string) error {
	if err := checkPartition(p); err != nil {
		return err
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM documents WHERE partition = ? AND id = ?`, string(p), id)
	if err != nil {
		return persistence("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistence("delete", err)
	}
	if n == 0 {
		return notFound(p, id)
	}
	return nil
}

// DeleteAll removes every document of p.
func (s *SQLite) DeleteAll(ctx context.Context, p Partition) (int, error) {
	if err := checkPartition(p); err != nil {
		return 0, err
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM documents WHERE partition = ?`, string(p))
	if err != nil {
		return 0, persistence("delete all", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistence("delete all", err)
	}
	return int(n), nil
}
