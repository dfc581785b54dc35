// Package csv implements storage.RecordSource over the jobs.csv,
// companies.csv and addresses.csv files produced by the scraper ETL.
//
// Columns are matched by header name, case-insensitively, so column order
// and extra columns do not matter.
package csv

import (
	"context"
	encsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/storage"
)

// Default file names inside the data directory.
const (
	DefaultJobsFile      = "jobs.csv"
	DefaultCompaniesFile = "companies.csv"
	DefaultAddressesFile = "addresses.csv"
)

// ErrDirRequired is returned when no data directory is given.
var ErrDirRequired = errors.New("data directory required")

// Source reads records from CSV files on every call.
type Source struct {
	dir           string
	jobsFile      string
	companiesFile string
	addressesFile string
	logger        *slog.Logger
}

var _ storage.RecordSource = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithFiles overrides the file names. Empty names keep the defaults.
func WithFiles(jobs, companies, addresses string) Option {
	return func(s *Source) {
		if jobs != "" {
			s.jobsFile = jobs
		}
		if companies != "" {
			s.companiesFile = companies
		}
		if addresses != "" {
			s.addressesFile = addresses
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSource creates a CSV record source rooted at dir.
//
// Returns storage.RecordSource interface to enforce abstraction.
func NewSource(dir string, opts ...Option) (storage.RecordSource, error) {
	return newSource(dir, opts...)
}

func newSource(dir string, opts ...Option) (*Source, error) {
	if dir == "" {
		return nil, ErrDirRequired
	}
	s := &Source{
		dir:           dir,
		jobsFile:      DefaultJobsFile,
		companiesFile: DefaultCompaniesFile,
		addressesFile: DefaultAddressesFile,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "csv-source", "dir", dir)
	return s, nil
}

// Jobs reads the jobs file.
func (s *Source) Jobs(ctx context.Context) ([]core.JobRecord, error) {
	var out []core.JobRecord
	err := s.read(ctx, s.jobsFile, []string{"id"}, func(row row) {
		out = append(out, core.JobRecord{
			ID:                     row.get("id"),
			Title:                  row.get("name", "title"),
			Company:                row.get("company", "company_name"),
			LocationID:             row.get("location", "location_id", "address_id"),
			Remote:                 row.get("remote"),
			Overview:               row.get("overview", "description"),
			Responsibilities:       row.get("responsibilities"),
			Qualifications:         row.get("qualifications"),
			OptionalQualifications: row.get("optional_qualifications"),
			Benefits:               row.get("benefits"),
			CreatedAt:              row.get("created_at"),
			IsOpen:                 row.get("is_open"),
			SalaryMin:              row.get("salary_min"),
			SalaryMax:              row.get("salary_max"),
		})
	})
	return out, err
}

// Companies reads the companies file.
func (s *Source) Companies(ctx context.Context) ([]core.CompanyRecord, error) {
	var out []core.CompanyRecord
	err := s.read(ctx, s.companiesFile, []string{"name"}, func(row row) {
		out = append(out, core.CompanyRecord{
			ID:             row.get("id"),
			Name:           row.get("name"),
			Industry:       row.get("industry"),
			Focus:          row.get("focus"),
			Details:        row.get("details"),
			Size:           row.get("size"),
			Stage:          row.get("stage"),
			Funding:        row.get("funding"),
			FoundedYear:    row.get("founded_year", "founded"),
			HeadquartersID: row.get("headquarters", "headquarters_id"),
			Website:        row.get("website"),
		})
	})
	return out, err
}

// Locations reads the addresses file.
func (s *Source) Locations(ctx context.Context) ([]core.LocationRecord, error) {
	var out []core.LocationRecord
	err := s.read(ctx, s.addressesFile, []string{"id"}, func(row row) {
		out = append(out, core.LocationRecord{
			ID:      row.get("id"),
			City:    row.get("city"),
			State:   row.get("state"),
			Country: row.get("country"),
			Address: row.get("street_address", "address"),
		})
	})
	return out, err
}

// row is one CSV record addressed by lowercased header name.
type row struct {
	index  map[string]int
	fields []string
}

// get returns the first non-empty value among the named columns.
func (r row) get(names ...string) string {
	for _, name := range names {
		i, ok := r.index[name]
		if !ok || i >= len(r.fields) {
			continue
		}
		if v := strings.TrimSpace(r.fields[i]); v != "" {
			return v
		}
	}
	return ""
}

func (s *Source) read(ctx context.Context, name string, required []string, fn func(row)) error {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := encsv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty file: %w", name, storage.ErrMissingColumn)
		}
		return fmt.Errorf("read %s header: %w", name, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("%s: %w: %s", name, storage.ErrMissingColumn, col)
		}
	}

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		fn(row{index: index, fields: fields})
		count++
	}

	s.logger.Debug("read csv file", "file", name, "rows", count)
	return nil
}
