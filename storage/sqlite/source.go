package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/storage"
)

// ErrDBRequired is returned when a nil database is given.
var ErrDBRequired = errors.New("database required")

// Source reads records from the database in insertion order.
type Source struct {
	db *DB
}

var _ storage.RecordSource = (*Source)(nil)

// NewSource creates a record source over db.
//
// Returns storage.RecordSource interface to enforce abstraction.
func NewSource(db *DB) (storage.RecordSource, error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	return &Source{db: db}, nil
}

// Jobs returns every job row.
func (s *Source) Jobs(ctx context.Context) ([]core.JobRecord, error) {
	rows, err := s.db.Pool.QueryContext(ctx, `
SELECT id, title, company, location_id, remote, overview, responsibilities,
       qualifications, optional_qualifications, benefits, created_at, is_open,
       salary_min, salary_max
FROM jobs ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r *sql.Rows) (core.JobRecord, error) {
		var j core.JobRecord
		err := r.Scan(&j.ID, &j.Title, &j.Company, &j.LocationID, &j.Remote, &j.Overview,
			&j.Responsibilities, &j.Qualifications, &j.OptionalQualifications, &j.Benefits,
			&j.CreatedAt, &j.IsOpen, &j.SalaryMin, &j.SalaryMax)
		return j, err
	})
}

// Companies returns every company row.
func (s *Source) Companies(ctx context.Context) ([]core.CompanyRecord, error) {
	rows, err := s.db.Pool.QueryContext(ctx, `
SELECT id, name, industry, focus, details, size, stage, funding, founded_year,
       headquarters_id, website
FROM companies ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r *sql.Rows) (core.CompanyRecord, error) {
		var c core.CompanyRecord
		err := r.Scan(&c.ID, &c.Name, &c.Industry, &c.Focus, &c.Details, &c.Size, &c.Stage,
			&c.Funding, &c.FoundedYear, &c.HeadquartersID, &c.Website)
		return c, err
	})
}

// Locations returns every location row.
func (s *Source) Locations(ctx context.Context) ([]core.LocationRecord, error) {
	rows, err := s.db.Pool.QueryContext(ctx, `
SELECT id, city, state, country, address FROM locations ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r *sql.Rows) (core.LocationRecord, error) {
		var l core.LocationRecord
		err := r.Scan(&l.ID, &l.City, &l.State, &l.Country, &l.Address)
		return l, err
	})
}

func collect[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
