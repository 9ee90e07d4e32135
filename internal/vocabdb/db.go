// Package vocabdb persists a trained vocabulary in SQLite so training is
// incremental across runs: each run loads what previous sessions recorded,
// adds its own observations, and saves the merged result.
package vocabdb

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mrcostanzo/cmdmock/internal/vocab"
)

//go:embed schema.sql
var schemaSQL string

// RootMismatchError reports an attempt to save a vocabulary into a
// database already bound to a different root command.
type RootMismatchError struct {
	Have string // root recorded in the database
	Want string // root of the store being saved
}

// Error implements the error interface.
func (e *RootMismatchError) Error() string {
	return fmt.Sprintf("database is bound to command %q, not %q; use a separate database per command", e.Have, e.Want)
}

// DB is a handle on one command's persistent vocabulary.
type DB struct {
	db *sql.DB
}

// Open creates or opens the vocabulary database at path and applies the
// schema. WAL mode and a single-writer connection cap keep SQLite happy
// under the trainer's synchronous access pattern. Idempotent.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite allows one writer; cap connections to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Root returns the root command this database is bound to, or "" if no
// vocabulary has been saved yet.
func (d *DB) Root(ctx context.Context) (string, error) {
	var root string
	err := d.db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = 'root'`).Scan(&root)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read root: %w", err)
	}
	return root, nil
}

// Save upserts the store's vocabulary and records the training session.
// The first save binds the database to the store's root command; saving a
// store with a different root returns a *RootMismatchError.
//
// Rows are never deleted: like the in-memory store, the persisted
// vocabulary grows monotonically, with call_map entries updated in place.
func (d *DB) Save(ctx context.Context, st *vocab.Store, sessionID string) error {
	have, err := d.Root(ctx)
	if err != nil {
		return err
	}
	if have != "" && have != st.Root() {
		return &RootMismatchError{Have: have, Want: st.Root()}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (k, v) VALUES ('root', ?) ON CONFLICT(k) DO NOTHING`,
		st.Root()); err != nil {
		return fmt.Errorf("save root: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, root, created_at) VALUES (?, ?, ?)`,
		sessionID, st.Root(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	for key, args := range st.Invocations() {
		argsJSON, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("save invocation %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO invocations (key, args) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
			string(key), string(argsJSON)); err != nil {
			return fmt.Errorf("save invocation %s: %w", key, err)
		}
	}

	for key, content := range st.Outputs() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outputs (key, content) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
			string(key), content); err != nil {
			return fmt.Errorf("save output %s: %w", key, err)
		}
	}

	for invKey, outKey := range st.CallMap() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO call_map (invocation_key, output_key) VALUES (?, ?)
			 ON CONFLICT(invocation_key) DO UPDATE SET output_key = excluded.output_key`,
			string(invKey), string(outKey)); err != nil {
			return fmt.Errorf("save call map entry %s: %w", invKey, err)
		}
	}

	return tx.Commit()
}

// Load rebuilds a store from the persisted vocabulary. The runner and
// options are wired into the returned store so further AddInvocation calls
// work; loading itself spawns nothing.
//
// Returns an error if the database holds no vocabulary yet.
func (d *DB) Load(ctx context.Context, runner vocab.Runner, opts vocab.Options) (*vocab.Store, error) {
	root, err := d.Root(ctx)
	if err != nil {
		return nil, err
	}
	if root == "" {
		return nil, fmt.Errorf("database holds no trained vocabulary")
	}

	st := vocab.New(root, runner, opts)

	rows, err := d.db.QueryContext(ctx, `
		SELECT i.args, o.content
		FROM call_map m
		JOIN invocations i ON i.key = m.invocation_key
		JOIN outputs o ON o.key = m.output_key
		ORDER BY m.invocation_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var argsJSON string
		var content []byte
		if err := rows.Scan(&argsJSON, &content); err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		var args []string
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		st.Record(args, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	return st, nil
}
