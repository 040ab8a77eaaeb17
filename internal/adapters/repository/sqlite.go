package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/training"
	"github.com/okian/gridcast/internal/domain/types"
	"github.com/okian/gridcast/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

const (
	schemaVersion   = 1
	defaultMaxLimit = 100
)

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db       *sql.DB
	log      logger.Logger
	maxLimit int
}

// Open creates or opens the history database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:" alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set user_version: %w", err)
	}

	s := &SQLiteStore{db: db, log: logger.Nop(), maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record implements Store.
func (s *SQLiteStore) Record(ctx context.Context, r *training.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		winnerNumber sql.NullInt64
		winnerName   sql.NullString
		winnerTeam   sql.NullString
		mae, r2      sql.NullFloat64
	)
	if w, ok := r.Winner(); ok {
		winnerNumber = sql.NullInt64{Int64: int64(w.Number), Valid: true}
		winnerName = sql.NullString{String: w.Name, Valid: true}
		winnerTeam = sql.NullString{String: w.Team, Valid: true}
	}
	if r.Metrics != nil {
		mae = sql.NullFloat64{Float64: r.Metrics.MAE, Valid: true}
		if r.Metrics.R2 != nil {
			r2 = sql.NullFloat64{Float64: *r.Metrics.R2, Valid: true}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, country, location, year, model, training_events, training_rows,
			features, skipped, winner_number, winner_name, winner_team, mae, r2, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Target.Country, r.Target.Location, r.Target.Year, r.Model,
		len(r.TrainingEvents), r.TrainingRows, r.Features, len(r.Skipped),
		winnerNumber, winnerName, winnerTeam, mae, r2,
		r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, e := range r.Predictions {
		var actual sql.NullInt64
		if e.Actual != nil {
			actual = sql.NullInt64{Int64: int64(*e.Actual), Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO predictions (run_id, rank, driver_number, driver_name, team_name, score, actual_position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.RunID, e.Rank, e.Driver.Number, e.Driver.Name, e.Driver.Team, e.Score, actual)
		if err != nil {
			return fmt.Errorf("insert prediction %s: %w", e.Driver, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug(ctx, "prediction run recorded",
		logger.String("run_id", r.RunID),
		logger.Int("entries", len(r.Predictions)),
	)
	return nil
}

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 || limit > s.maxLimit {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidLimit, limit, s.maxLimit)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, country, location, year, model, training_events, training_rows, features,
			skipped, winner_number, winner_name, winner_team, mae, r2, created_at
		FROM runs
		ORDER BY created_at DESC, run_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run          Run
		winnerNumber sql.NullInt64
		winnerName   sql.NullString
		winnerTeam   sql.NullString
		mae, r2      sql.NullFloat64
		created      string
	)
	if err := rows.Scan(&run.RunID, &run.Target.Country, &run.Target.Location, &run.Target.Year,
		&run.Model, &run.TrainingEvents, &run.TrainingRows, &run.Features, &run.Skipped,
		&winnerNumber, &winnerName, &winnerTeam, &mae, &r2, &created); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if winnerNumber.Valid {
		run.Winner = &model.DriverIdentity{Number: int(winnerNumber.Int64), Name: winnerName.String, Team: winnerTeam.String}
	}
	if mae.Valid {
		run.MAE = &mae.Float64
	}
	if r2.Valid {
		run.R2 = &r2.Float64
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at of %s: %w", run.RunID, err)
	}
	run.CreatedAt = t
	return run, nil
}

// Predictions implements Store.
func (s *SQLiteStore) Predictions(ctx context.Context, runID string) ([]types.Entry, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE run_id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rank, driver_number, driver_name, team_name, score, actual_position
		FROM predictions
		WHERE run_id = ?
		ORDER BY rank ASC, score ASC, driver_number ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	entries := []types.Entry{}
	for rows.Next() {
		var (
			e      types.Entry
			actual sql.NullInt64
		)
		if err := rows.Scan(&e.Rank, &e.Driver.Number, &e.Driver.Name, &e.Driver.Team, &e.Score, &actual); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if actual.Valid {
			a := int(actual.Int64)
			e.Actual = &a
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return entries, nil
}
