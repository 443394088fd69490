package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/unitrack/internal/reference"
)

// tables maps each kind to its table. Only these names are ever interpolated.
var tables = map[reference.Kind]string{
	reference.KindStudents:     "students",
	reference.KindUniversities: "universities",
	reference.KindCounselors:   "counselors",
	reference.KindProcessors:   "processors",
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListOptions(ctx context.Context, kind reference.Kind) ([]reference.Option, error) {
	table, ok := tables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM `+table+` ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	defer rows.Close()

	opts := []reference.Option{}

	for rows.Next() {
		var o reference.Option
		if err := rows.Scan(&o.Value, &o.Label); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}

		opts = append(opts, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}

	return opts, nil
}
