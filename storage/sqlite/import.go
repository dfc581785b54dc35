package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/storage"
	"golang.org/x/sync/errgroup"
)

// ErrLocked is returned when another import holds the database lock.
var ErrLocked = errors.New("database is locked by another import")

// ImportStats reports how many rows an import wrote.
type ImportStats struct {
	Jobs      int
	Companies int
	Locations int
}

// Import replaces the database contents with every record from src.
// The replacement happens in one transaction under an exclusive file lock
// next to the database, so concurrent importers fail with ErrLocked instead
// of interleaving.
func (d *DB) Import(ctx context.Context, src storage.RecordSource, lockWait time.Duration) (ImportStats, error) {
	var stats ImportStats

	lock := flock.New(d.path + ".lock")
	var (
		locked bool
		err    error
	)
	if lockWait > 0 {
		lockCtx, cancel := context.WithTimeout(ctx, lockWait)
		defer cancel()
		locked, err = lock.TryLockContext(lockCtx, 100*time.Millisecond)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = nil
		}
	} else {
		locked, err = lock.TryLock()
	}
	if err != nil {
		return stats, fmt.Errorf("acquire import lock: %w", err)
	}
	if !locked {
		return stats, ErrLocked
	}
	defer func() { _ = lock.Unlock() }()

	var (
		jobs      []core.JobRecord
		companies []core.CompanyRecord
		locations []core.LocationRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		jobs, err = src.Jobs(gctx)
		return err
	})
	g.Go(func() (err error) {
		companies, err = src.Companies(gctx)
		return err
	})
	g.Go(func() (err error) {
		locations, err = src.Locations(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("read import source: %w", err)
	}

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return stats, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"jobs", "companies", "locations"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return stats, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	jobStmt, err := tx.PrepareContext(ctx, `
INSERT INTO jobs (id, title, company, location_id, remote, overview, responsibilities,
  qualifications, optional_qualifications, benefits, created_at, is_open, salary_min, salary_max)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return stats, err
	}
	defer jobStmt.Close()
	for _, j := range jobs {
		if _, err := jobStmt.ExecContext(ctx, j.ID, j.Title, j.Company, j.LocationID, j.Remote,
			j.Overview, j.Responsibilities, j.Qualifications, j.OptionalQualifications, j.Benefits,
			j.CreatedAt, j.IsOpen, j.SalaryMin, j.SalaryMax); err != nil {
			return stats, fmt.Errorf("insert job %q: %w", j.ID, err)
		}
		stats.Jobs++
	}

	companyStmt, err := tx.PrepareContext(ctx, `
INSERT INTO companies (id, name, industry, focus, details, size, stage, funding,
  founded_year, headquarters_id, website)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return stats, err
	}
	defer companyStmt.Close()
	for _, c := range companies {
		if _, err := companyStmt.ExecContext(ctx, c.ID, c.Name, c.Industry, c.Focus, c.Details,
			c.Size, c.Stage, c.Funding, c.FoundedYear, c.HeadquartersID, c.Website); err != nil {
			return stats, fmt.Errorf("insert company %q: %w", c.Name, err)
		}
		stats.Companies++
	}

	locationStmt, err := tx.PrepareContext(ctx, `
INSERT INTO locations (id, city, state, country, address) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return stats, err
	}
	defer locationStmt.Close()
	for _, l := range locations {
		if _, err := locationStmt.ExecContext(ctx, l.ID, l.City, l.State, l.Country, l.Address); err != nil {
			return stats, fmt.Errorf("insert location %q: %w", l.ID, err)
		}
		stats.Locations++
	}

	if err := tx.Commit(); err != nil {
		return stats, err
	}

	d.logger.Info("import complete", "jobs", stats.Jobs, "companies", stats.Companies, "locations", stats.Locations)
	return stats, nil
}
