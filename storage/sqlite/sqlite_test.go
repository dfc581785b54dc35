package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/poiesic/jobsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	jobs      []core.JobRecord
	companies []core.CompanyRecord
	locations []core.LocationRecord
	err       error
}

func (s *staticSource) Jobs(ctx context.Context) ([]core.JobRecord, error) {
	return s.jobs, s.err
}

func (s *staticSource) Companies(ctx context.Context) ([]core.CompanyRecord, error) {
	return s.companies, nil
}

func (s *staticSource) Locations(ctx context.Context) ([]core.LocationRecord, error) {
	return s.locations, nil
}

func fixture() *staticSource {
	return &staticSource{
		jobs: []core.JobRecord{
			{ID: "j1", Title: "Backend Engineer", Company: "Acme", LocationID: "a1", Remote: "false", Qualifications: "Go, SQL", IsOpen: "true", SalaryMin: "120000"},
			{ID: "j2", Title: "Data Scientist", Company: "Globex", LocationID: "a2", Remote: "true"},
		},
		companies: []core.CompanyRecord{
			{ID: "c1", Name: "Acme", Industry: "Software", Size: "1200", Stage: "Established", Funding: "Public"},
		},
		locations: []core.LocationRecord{
			{ID: "a1", City: "Austin", State: "TX", Country: "USA"},
			{ID: "a2", City: "Berlin", Country: "Germany"},
		},
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Equal(t, ErrPathRequired, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))

	var v int
	require.NoError(t, db.Pool.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, 1, v)
}

func TestImport_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	stats, err := db.Import(ctx, fixture(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Jobs: 2, Companies: 1, Locations: 2}, stats)

	src, err := NewSource(db)
	require.NoError(t, err)

	jobs, err := src.Jobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixture().jobs, jobs)

	companies, err := src.Companies(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixture().companies, companies)

	locations, err := src.Locations(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixture().locations, locations)
}

func TestImport_ReplacesContents(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Import(ctx, fixture(), time.Second)
	require.NoError(t, err)

	smaller := fixture()
	smaller.jobs = smaller.jobs[:1]
	_, err = db.Import(ctx, smaller, time.Second)
	require.NoError(t, err)

	src, _ := NewSource(db)
	jobs, err := src.Jobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestImport_SourceErrorLeavesDataIntact(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Import(ctx, fixture(), time.Second)
	require.NoError(t, err)

	broken := fixture()
	broken.err = errors.New("disk gone")
	_, err = db.Import(ctx, broken, time.Second)
	require.Error(t, err)

	src, _ := NewSource(db)
	jobs, err := src.Jobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestImport_Locked(t *testing.T) {
	db := openTestDB(t)

	other := flock.New(db.Path() + ".lock")
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer other.Unlock()

	_, err = db.Import(context.Background(), fixture(), 0)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestNewSource_RequiresDB(t *testing.T) {
	_, err := NewSource(nil)
	assert.Equal(t, ErrDBRequired, err)
}
