// Package store keeps the revision history of parts in SQLite. Each
// revision is a complete snapshot; undo is loading an older revision and
// recomputing from it.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chazu/tinsnip/pkg/part"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS revisions (
	id            TEXT PRIMARY KEY,
	part          TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	message       TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL DEFAULT '',
	snapshot_json TEXT NOT NULL,
	checksum      TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	UNIQUE(part, seq)
);
CREATE INDEX IF NOT EXISTS idx_revisions_part_seq ON revisions(part, seq);
`

// Revision is one saved state of a part.
type Revision struct {
	ID        string        `json:"id"`
	Part      string        `json:"part"`
	Seq       int           `json:"seq"`
	Message   string        `json:"message,omitempty"`
	Source    string        `json:"source,omitempty"`
	Snapshot  part.Snapshot `json:"snapshot"`
	Checksum  string        `json:"checksum"`
	CreatedAt int64         `json:"createdAt"`
}

// Revisions is the revision store.
type Revisions struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Revisions, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// One writer; WAL still lets readers through.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(context.Background(), schemaV1); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate schema: %w", err)
	}
	return &Revisions{db: db}, nil
}

// Close closes the database.
func (r *Revisions) Close() error { return r.db.Close() }

func encode(s part.Snapshot) ([]byte, string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, "", fmt.Errorf("store: encode snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// Checksum returns the hex SHA-256 of the snapshot's JSON encoding.
func Checksum(s part.Snapshot) (string, error) {
	_, sum, err := encode(s)
	return sum, err
}

// Save appends s as the next revision of partName. Saving a snapshot
// identical to the latest revision returns that revision unchanged.
func (r *Revisions) Save(ctx context.Context, partName, message, source string, s part.Snapshot) (*Revision, error) {
	data, checksum, err := encode(s)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int
	var last sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT seq, checksum FROM revisions WHERE part = ? ORDER BY seq DESC LIMIT 1`, partName,
	).Scan(&seq, &last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: latest seq: %w", err)
	}
	if last.Valid && last.String == checksum {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("store: commit: %w", err)
		}
		return r.Get(ctx, partName, seq)
	}

	rev := Revision{
		ID:        uuid.NewString(),
		Part:      partName,
		Seq:       seq + 1,
		Message:   message,
		Source:    source,
		Snapshot:  s,
		Checksum:  checksum,
		CreatedAt: time.Now().Unix(),
	}
	const q = `INSERT INTO revisions (id, part, seq, message, source, snapshot_json, checksum, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, rev.ID, rev.Part, rev.Seq, rev.Message, rev.Source, string(data), rev.Checksum, rev.CreatedAt); err != nil {
		return nil, fmt.Errorf("store: save revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return &rev, nil
}

const selectRevision = `SELECT id, part, seq, message, source, snapshot_json, checksum, created_at FROM revisions`

type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(row scanner) (*Revision, error) {
	var rev Revision
	var data string
	if err := row.Scan(&rev.ID, &rev.Part, &rev.Seq, &rev.Message, &rev.Source, &data, &rev.Checksum, &rev.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &rev.Snapshot); err != nil {
		return nil, fmt.Errorf("store: decode revision %s: %w", rev.ID, err)
	}
	return &rev, nil
}

// Latest returns the newest revision of partName, or nil if it has none.
func (r *Revisions) Latest(ctx context.Context, partName string) (*Revision, error) {
	row := r.db.QueryRowContext(ctx, selectRevision+` WHERE part = ? ORDER BY seq DESC LIMIT 1`, partName)
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest %s: %w", partName, err)
	}
	return rev, nil
}

// Get returns revision seq of partName, or nil if it does not exist.
func (r *Revisions) Get(ctx context.Context, partName string, seq int) (*Revision, error) {
	row := r.db.QueryRowContext(ctx, selectRevision+` WHERE part = ? AND seq = ?`, partName, seq)
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s@%d: %w", partName, seq, err)
	}
	return rev, nil
}

// List returns every revision of partName, oldest first.
func (r *Revisions) List(ctx context.Context, partName string) ([]Revision, error) {
	rows, err := r.db.QueryContext(ctx, selectRevision+` WHERE part = ? ORDER BY seq`, partName)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", partName, err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list %s: %w", partName, err)
		}
		out = append(out, *rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list %s: %w", partName, err)
	}
	return out, nil
}

// Parts returns the names of every part with history, sorted.
func (r *Revisions) Parts(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT part FROM revisions ORDER BY part`)
	if err != nil {
		return nil, fmt.Errorf("store: parts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: parts: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
