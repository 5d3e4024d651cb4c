// Package store persists takeoff measurements in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/flanksource/commons/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/ivanvanderbyl/pdftakeoff"
)

const schema = `
CREATE TABLE IF NOT EXISTS measurements (
	project_id  TEXT NOT NULL,
	position    INTEGER NOT NULL,
	id          TEXT NOT NULL,
	type        TEXT NOT NULL,
	page_number INTEGER NOT NULL,
	record      TEXT NOT NULL,
	PRIMARY KEY (project_id, position)
);
CREATE INDEX IF NOT EXISTS idx_measurements_page ON measurements(project_id, page_number);
`

// Store keeps the measurements of each project as JSON records.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.Wrap(err, "failed to create store directory")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to set pragma %s", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored measurements of a project.
func (s *Store) Save(ctx context.Context, projectID string, measurements []pdftakeoff.Measurement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements WHERE project_id = ?`, projectID); err != nil {
		return errors.Wrapf(err, "failed to clear project %s", projectID)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO measurements (project_id, position, id, type, page_number, record)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for i, m := range measurements {
		rec := m.ToRecord()
		data, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrapf(err, "failed to encode measurement %s", m.ID)
		}
		if _, err := stmt.ExecContext(ctx, projectID, i, rec.ID, rec.Type, rec.PageNumber, string(data)); err != nil {
			return errors.Wrapf(err, "failed to insert measurement %s", m.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit measurements")
	}
	logger.Debugf("saved %d measurements for project %s", len(measurements), projectID)
	return nil
}

// Load returns the measurements of a project in saved order. Records that
// no longer parse are skipped with a warning.
func (s *Store) Load(ctx context.Context, projectID string) ([]pdftakeoff.Measurement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM measurements
		WHERE project_id = ?
		ORDER BY position`, projectID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query project %s", projectID)
	}
	defer rows.Close()

	var measurements []pdftakeoff.Measurement
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "failed to scan measurement")
		}

		var rec pdftakeoff.MeasurementRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			logger.Warnf("skipping unreadable measurement in project %s: %v", projectID, err)
			continue
		}
		m, err := pdftakeoff.FromRecord(rec)
		if err != nil {
			logger.Warnf("skipping measurement %s in project %s: %v", rec.ID, projectID, err)
			continue
		}
		measurements = append(measurements, m)
	}
	return measurements, errors.Wrap(rows.Err(), "failed to read measurements")
}

// Delete removes every measurement of a project.
func (s *Store) Delete(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM measurements WHERE project_id = ?`, projectID)
	return errors.Wrapf(err, "failed to delete project %s", projectID)
}

// Projects lists the project IDs with stored measurements.
func (s *Store) Projects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT project_id FROM measurements ORDER BY project_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list projects")
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan project")
		}
		projects = append(projects, id)
	}
	return projects, errors.Wrap(rows.Err(), "failed to read projects")
}
