package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"groupsync/internal/model"

	_ "modernc.org/sqlite"
)

// SQLite persists groups and items in a single database file.
type SQLite struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("open sqlite: empty path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, unavailable("open sqlite", err)
		}
	}
	// modernc.org/sqlite driver name is "sqlite". Pragmas in the DSN apply to every
	// pooled connection, which matters for foreign_keys.
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, unavailable("open sqlite", err)
	}
	// One writer; reconciliation is already serialized above us.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, unavailable("open sqlite", err)
	}
	if err := migrateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{path: path, db: db}, nil
}

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrateSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY(group_id, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_group ON items(group_id);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) FetchAllGroups(ctx context.Context) ([]model.Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM groups ORDER BY name, id`)
	if err != nil {
		return nil, unavailable("fetch groups", err)
	}
	defer rows.Close()

	var out []model.Group
	pos := map[model.GroupID]int{}
	for rows.Next() {
		var rawID, name string
		if err := rows.Scan(&rawID, &name); err != nil {
			return nil, unavailable("fetch groups", err)
		}
		id, err := model.ParseGroupID(rawID)
		if err != nil {
			return nil, err
		}
		pos[id] = len(out)
		out = append(out, model.Group{ID: id, Name: name, Items: []model.Item{}})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("fetch groups", err)
	}

	itemRows, err := s.db.QueryContext(ctx, `SELECT group_id, id, name FROM items ORDER BY group_id, name, id`)
	if err != nil {
		return nil, unavailable("fetch items", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var rawGroup, rawID, name string
		if err := itemRows.Scan(&rawGroup, &rawID, &name); err != nil {
			return nil, unavailable("fetch items", err)
		}
		gid, err := model.ParseGroupID(rawGroup)
		if err != nil {
			return nil, err
		}
		iid, err := model.ParseItemID(rawID)
		if err != nil {
			return nil, err
		}
		i, ok := pos[gid]
		if !ok {
			// Orphan rows cannot exist with foreign keys on; skip rather than fail the fetch.
			continue
		}
		out[i].Items = append(out[i].Items, model.Item{ID: iid, Name: name})
	}
	if err := itemRows.Err(); err != nil {
		return nil, unavailable("fetch items", err)
	}
	if out == nil {
		out = []model.Group{}
	}
	return out, nil
}

func (s *SQLite) ApplyTransaction(ctx context.Context, ops []Op) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return &TransactionFailure{Ops: len(ops), Err: unavailable("begin", err)}
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()
	for _, op := range ops {
		if err := applySQLiteOp(ctx, tx, op, nowMs); err != nil {
			return &TransactionFailure{Ops: len(ops), Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &TransactionFailure{Ops: len(ops), Err: err}
	}
	return nil
}

func applySQLiteOp(ctx context.Context, tx *sql.Tx, op Op, nowMs int64) error {
	gid := op.GroupID.String()
	iid := op.ItemID.String()

	switch op.Kind {
	case OpCreateGroup:
		if exists, err := rowExists(ctx, tx, `SELECT 1 FROM groups WHERE id = ?`, gid); err != nil {
			return err
		} else if exists {
			return ConflictError{Op: op, Msg: "group already exists"}
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO groups(id, name, created_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?)`,
			gid, op.Name, nowMs, nowMs)
		return err
	case OpUpdateGroup:
		return execOne(ctx, tx, op, "group not found",
			`UPDATE groups SET name = ?, updated_at_unixms = ? WHERE id = ?`, op.Name, nowMs, gid)
	case OpDeleteGroup:
		// Explicit cascade; the foreign key would do the same.
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE group_id = ?`, gid); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, gid)
		return err
	case OpCreateItem:
		if exists, err := rowExists(ctx, tx, `SELECT 1 FROM groups WHERE id = ?`, gid); err != nil {
			return err
		} else if !exists {
			return ConflictError{Op: op, Msg: "group not found"}
		}
		if exists, err := rowExists(ctx, tx, `SELECT 1 FROM items WHERE group_id = ? AND id = ?`, gid, iid); err != nil {
			return err
		} else if exists {
			return ConflictError{Op: op, Msg: "item already exists"}
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO items(group_id, id, name, created_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
			gid, iid, op.Name, nowMs, nowMs)
		return err
	case OpUpdateItem:
		return execOne(ctx, tx, op, "item not found",
			`UPDATE items SET name = ?, updated_at_unixms = ? WHERE group_id = ? AND id = ?`, op.Name, nowMs, gid, iid)
	case OpDeleteItem:
		_, err := tx.ExecContext(ctx, `DELETE FROM items WHERE group_id = ? AND id = ?`, gid, iid)
		return err
	default:
		return ConflictError{Op: op, Msg: "unknown op kind"}
	}
}

func rowExists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func execOne(ctx context.Context, tx *sql.Tx, op Op, missing string, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ConflictError{Op: op, Msg: missing}
	}
	return nil
}
