package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mj1618/focusorder/internal/model"

	_ "modernc.org/sqlite"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	s, err := NewSQLite(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database and creates the table if missing.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to init focus_specs: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS focus_specs (
		frame_id   TEXT PRIMARY KEY,
		platform   TEXT NOT NULL,
		checksum   TEXT NOT NULL DEFAULT '',
		body       TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Get(ctx context.Context, frameID string) (model.FocusSequence, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM focus_specs WHERE frame_id = ?`, frameID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FocusSequence{}, ErrNotFound
	}
	if err != nil {
		return model.FocusSequence{}, fmt.Errorf("failed to read spec %s: %w", frameID, err)
	}
	return decodeSeq(body)
}

func (s *SQLite) Put(ctx context.Context, seq model.FocusSequence) (model.FocusSequence, error) {
	if seq.FrameID == "" {
		return model.FocusSequence{}, errors.New("store: sequence has no frame id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.FocusSequence{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var prev *model.FocusSequence
	var body string
	switch err := tx.QueryRowContext(ctx, `SELECT body FROM focus_specs WHERE frame_id = ?`, seq.FrameID).Scan(&body); {
	case err == nil:
		p, err := decodeSeq(body)
		if err != nil {
			return model.FocusSequence{}, err
		}
		prev = &p
	case !errors.Is(err, sql.ErrNoRows):
		return model.FocusSequence{}, fmt.Errorf("failed to read spec %s: %w", seq.FrameID, err)
	}

	seq = stamp(seq, prev, s.now())
	raw, err := json.Marshal(seq)
	if err != nil {
		return model.FocusSequence{}, fmt.Errorf("failed to encode spec: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
	INSERT INTO focus_specs (frame_id, platform, checksum, body, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(frame_id) DO UPDATE SET
		platform = excluded.platform,
		checksum = excluded.checksum,
		body = excluded.body,
		updated_at = excluded.updated_at`,
		seq.FrameID, string(seq.Platform), seq.Checksum, string(raw), seq.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.FocusSequence{}, fmt.Errorf("failed to write spec %s: %w", seq.FrameID, err)
	}
	if err := tx.Commit(); err != nil {
		return model.FocusSequence{}, err
	}
	return seq, nil
}

func (s *SQLite) Delete(ctx context.Context, frameID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM focus_specs WHERE frame_id = ?`, frameID)
	return err
}

func (s *SQLite) List(ctx context.Context) ([]model.FocusSequence, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM focus_specs ORDER BY frame_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.FocusSequence
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		seq, err := decodeSeq(body)
		if err != nil {
			return nil, err
		}
		out = append(out, seq)
	}
	return out, rows.Err()
}

func decodeSeq(body string) (model.FocusSequence, error) {
	var seq model.FocusSequence
	if err := json.Unmarshal([]byte(body), &seq); err != nil {
		return model.FocusSequence{}, fmt.Errorf("failed to decode spec: %w", err)
	}
	return seq, nil
}
