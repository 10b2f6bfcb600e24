package store

import (
	"context"
	"database/sql"
	"time"

	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/quorumlabs/quorum/pkg/quorum/tracker"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS model_records (
	model_id       TEXT PRIMARY KEY,
	quality_ema    REAL NOT NULL,
	success_ema    REAL NOT NULL,
	latency_ema_ms REAL NOT NULL,
	samples        INTEGER NOT NULL,
	last_updated   INTEGER NOT NULL
);`

// SQLite persists records in a local database file so reliability history
// survives restarts.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening record store %s", path)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing record store schema")
	}

	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get implements tracker.Store
func (s *SQLite) Get(ctx context.Context, modelID string) (tracker.Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT model_id, quality_ema, success_ema, latency_ema_ms, samples, last_updated
		 FROM model_records WHERE model_id = ?`, modelID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return tracker.Record{}, false, nil
	}
	if err != nil {
		return tracker.Record{}, false, errors.Wrapf(err, "loading record for %s", modelID)
	}
	return rec, true, nil
}

// Put implements tracker.Store
func (s *SQLite) Put(ctx context.Context, rec tracker.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO model_records (model_id, quality_ema, success_ema, latency_ema_ms, samples, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(model_id) DO UPDATE SET
			quality_ema = excluded.quality_ema,
			success_ema = excluded.success_ema,
			latency_ema_ms = excluded.latency_ema_ms,
			samples = excluded.samples,
			last_updated = excluded.last_updated`,
		rec.ModelID, rec.QualityEMA, rec.SuccessEMA, rec.LatencyEMAMs,
		rec.Samples, rec.LastUpdated.UnixMilli())
	return errors.Wrapf(err, "storing record for %s", rec.ModelID)
}

// List implements tracker.Store
func (s *SQLite) List(ctx context.Context) ([]tracker.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model_id, quality_ema, success_ema, latency_ema_ms, samples, last_updated
		 FROM model_records ORDER BY model_id`)
	if err != nil {
		return nil, errors.Wrap(err, "listing records")
	}
	defer rows.Close()

	var out []tracker.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning record")
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "iterating records")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (tracker.Record, error) {
	var rec tracker.Record
	var updatedMs int64
	err := s.Scan(&rec.ModelID, &rec.QualityEMA, &rec.SuccessEMA,
		&rec.LatencyEMAMs, &rec.Samples, &updatedMs)
	if err != nil {
		return tracker.Record{}, err
	}
	rec.LastUpdated = time.UnixMilli(updatedMs)
	return rec, nil
}
