// Package store keeps a history of served predictions in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/heartpredict/diagnosis"
	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
)

var (
	//go:embed sql/*
	f embed.FS

	// ErrDisabled is returned by a Store opened without a path.
	ErrDisabled = errors.New("prediction history disabled")
)

// Entry is one stored prediction.
type Entry struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Source    string              `json:"source"`
	Record    heart.Record        `json:"record"`
	Diagnosis diagnosis.Diagnosis `json:"diagnosis"`
}

// Store appends predictions and lists the latest ones.
type Store struct {
	db     *sql.DB
	logger log.Logger
	now    func() time.Time
}

var columns = "id, created_at, source, " + strings.Join(heart.FeatureNames, ", ") + ", label, probability"

// Open opens or creates the database at path. An empty path returns a
// disabled store whose methods return ErrDisabled.
func Open(ctx context.Context, path string) (*Store, error) {
	s := &Store{logger: log.GetLoggerWithName("store"), now: time.Now}
	if path == "" {
		return s, nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", path)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to read the schema creation file")
	}
	if _, err := db.ExecContext(ctx, string(b)); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to create database schema in: %s", path)
	}

	s.db = db
	s.logger.Debug("Prediction history opened", log.DataPathKey, path)
	return s, nil
}

// Enabled reports whether predictions are persisted.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// Save stores one prediction and returns its entry.
func (s *Store) Save(ctx context.Context, source string, r heart.Record, d diagnosis.Diagnosis) (*Entry, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	e := &Entry{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Source:    source,
		Record:    r,
		Diagnosis: diagnosis.Diagnosis{Label: d.Label, Probability: d.Probability},
	}

	args := []any{e.ID, e.CreatedAt.UnixNano(), e.Source}
	for _, v := range r.Vector() {
		args = append(args, v)
	}
	args = append(args, d.Label, d.Probability)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	q := "INSERT INTO prediction (" + columns + ") VALUES (" + placeholders + ")"
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, errors.Wrap(err, "failed to insert prediction")
	}
	return e, nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]*Entry, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if n <= 0 {
		return nil, errors.NewValidationError("n", "must be positive", n)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+columns+" FROM prediction ORDER BY created_at DESC, rowid DESC LIMIT ?", n)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query predictions")
	}
	defer rows.Close()

	list := make([]*Entry, 0, n)
	for rows.Next() {
		var (
			e    Entry
			ts   int64
			vals [heart.NumFeatures]float64
		)
		dest := []any{&e.ID, &ts, &e.Source}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		dest = append(dest, &e.Diagnosis.Label, &e.Diagnosis.Probability)
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "failed to scan prediction")
		}
		e.CreatedAt = time.Unix(0, ts).UTC()
		if e.Record, err = heart.RecordFromVector(vals[:]); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate predictions")
	}
	return list, nil
}

// Count returns the number of stored predictions.
func (s *Store) Count(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, ErrDisabled
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM prediction").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count predictions")
	}
	return n, nil
}

// Close releases the database. It is a no-op on a disabled store.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.db.Close()
}
