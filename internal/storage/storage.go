package storage

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite-backed persistence for run history and per-frame
// outcomes. A nil *Store is valid and records nothing, so the pipeline can
// run without a database.
type Store struct {
	DB *sql.DB
}

// New opens (or creates) the database at path and ensures schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            status TEXT NOT NULL,
            input_dir TEXT,
            output_path TEXT,
            images_found INTEGER,
            images_converted INTEGER,
            images_skipped INTEGER,
            frames_encoded INTEGER,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            completed_at TIMESTAMP,
            error_message TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS frame_outcomes (
            run_id TEXT NOT NULL,
            sequence_index INTEGER NOT NULL,
            source_path TEXT NOT NULL,
            taken_at TIMESTAMP,
            outcome TEXT NOT NULL,
            detail TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_frame_outcomes_run ON frame_outcomes(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_frame_outcomes_outcome ON frame_outcomes(outcome);`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// RunRecord captures persisted run info.
type RunRecord struct {
	ID              string
	Status          string
	InputDir        string
	OutputPath      string
	ImagesFound     int
	ImagesConverted int
	ImagesSkipped   int
	FramesEncoded   int
	Error           string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// FrameOutcomeRecord captures one source's fate in a run.
type FrameOutcomeRecord struct {
	RunID         string
	SequenceIndex int
	SourcePath    string
	TakenAt       time.Time
	Outcome       string
	Detail        string
}

// RecordRunStart inserts a running run row.
func (s *Store) RecordRunStart(rec RunRecord) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`INSERT OR REPLACE INTO runs (id, status, input_dir, output_path, images_found) VALUES (?, 'running', ?, ?, ?);`,
		rec.ID, rec.InputDir, rec.OutputPath, rec.ImagesFound)
	return err
}

// RecordRunResult finalizes a run row.
func (s *Store) RecordRunResult(rec RunRecord) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`UPDATE runs SET status=?, images_converted=?, images_skipped=?, frames_encoded=?, error_message=?, completed_at=CURRENT_TIMESTAMP WHERE id=?;`,
		rec.Status, rec.ImagesConverted, rec.ImagesSkipped, rec.FramesEncoded, rec.Error, rec.ID)
	return err
}

// RecordFrameOutcome persists a single frame's result.
func (s *Store) RecordFrameOutcome(rec FrameOutcomeRecord) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`INSERT INTO frame_outcomes (run_id, sequence_index, source_path, taken_at, outcome, detail) VALUES (?, ?, ?, ?, ?, ?);`,
		rec.RunID, rec.SequenceIndex, rec.SourcePath, rec.TakenAt, rec.Outcome, rec.Detail)
	return err
}

// RecentRuns returns the latest runs up to limit.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	rows, err := s.DB.Query(`SELECT id, status, input_dir, output_path, images_found, images_converted, images_skipped, frames_encoded, error_message, created_at, completed_at FROM runs ORDER BY created_at DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var found, converted, skipped, encoded sql.NullInt64
		var errorMsg, input, output sql.NullString
		var completed sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Status, &input, &output, &found, &converted, &skipped, &encoded, &errorMsg, &rec.CreatedAt, &completed); err != nil {
			return nil, err
		}
		rec.InputDir = input.String
		rec.OutputPath = output.String
		rec.ImagesFound = int(found.Int64)
		rec.ImagesConverted = int(converted.Int64)
		rec.ImagesSkipped = int(skipped.Int64)
		rec.FramesEncoded = int(encoded.Int64)
		rec.Error = errorMsg.String
		if completed.Valid {
			rec.CompletedAt = &completed.Time
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// FrameOutcomes returns the per-frame records for a run in sequence order.
func (s *Store) FrameOutcomes(runID string) ([]FrameOutcomeRecord, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	rows, err := s.DB.Query(`SELECT run_id, sequence_index, source_path, taken_at, outcome, detail FROM frame_outcomes WHERE run_id=? ORDER BY sequence_index;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []FrameOutcomeRecord
	for rows.Next() {
		var rec FrameOutcomeRecord
		var detail sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.SequenceIndex, &rec.SourcePath, &rec.TakenAt, &rec.Outcome, &detail); err != nil {
			return nil, err
		}
		rec.Detail = detail.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
