package corpus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/jobsift/config"
	"github.com/poiesic/jobsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves fixed records and optional per-collection errors.
type fakeSource struct {
	jobs      []core.JobRecord
	companies []core.CompanyRecord
	locations []core.LocationRecord

	jobsErr, companiesErr, locationsErr error

	calls atomic.Int32
}

func (f *fakeSource) Jobs(ctx context.Context) ([]core.JobRecord, error) {
	f.calls.Add(1)
	return f.jobs, f.jobsErr
}

func (f *fakeSource) Companies(ctx context.Context) ([]core.CompanyRecord, error) {
	return f.companies, f.companiesErr
}

func (f *fakeSource) Locations(ctx context.Context) ([]core.LocationRecord, error) {
	return f.locations, f.locationsErr
}

func testSource() *fakeSource {
	return &fakeSource{
		jobs: []core.JobRecord{
			{ID: "j1", Title: "Senior Backend Engineer", Company: "Acme", LocationID: "a1", Remote: "false",
				Overview: "<p>Build Go services</p>", Qualifications: "Go, SQL", Benefits: "Health;401k",
				CreatedAt: "2024-05-01T00:00:00Z", IsOpen: "true", SalaryMin: "150000", SalaryMax: "190000"},
			{ID: "j2", Title: "Data Scientist", Company: "globex ", LocationID: "missing", Remote: "TRUE"},
			{ID: "j3", Title: "ML Engineer", Company: "Initech", LocationID: "", Remote: "false"},
			{ID: "j4", Title: "Closed Role", Company: "Acme", IsOpen: "False"},
			{ID: "j1", Title: "Duplicate", Company: "Acme"},
			{ID: "", Title: "", Company: ""},
			{ID: "j5", Title: "Intern", Company: "Acme", SalaryMin: "lots"},
		},
		companies: []core.CompanyRecord{
			{ID: "c1", Name: "Acme", Size: "1,200", Stage: "Established", Funding: "Public", HeadquartersID: "a1", FoundedYear: "1999"},
			{ID: "c2", Name: "Globex", Size: "abc", Stage: "Startup", HeadquartersID: "Springfield, USA"},
			{ID: "c3", Name: "ACME", Size: "10"},
			{ID: "c4", Name: ""},
		},
		locations: []core.LocationRecord{
			{ID: "a1", City: "Austin", State: "TX", Country: "USA"},
			{ID: "a2", City: "Berlin", Country: "Germany"},
		},
	}
}

func TestNewLoader_RequiresSource(t *testing.T) {
	_, err := NewLoader(nil)
	assert.Equal(t, ErrSourceRequired, err)
}

func TestLoader_Load(t *testing.T) {
	loader, err := NewLoader(testSource(), WithTagRules([]config.TagRule{{Tag: "go", Any: []string{"go "}}}))
	require.NoError(t, err)

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Jobs, 5)
	ids := make([]string, len(snap.Jobs))
	for i, j := range snap.Jobs {
		ids[i] = j.ID
	}
	fallbackID := ids[3]
	assert.Equal(t, []string{"j1", "j2", "j3", fallbackID, "j5"}, ids)

	j1 := snap.Jobs[0]
	assert.Equal(t, "Austin, TX", j1.Location)
	assert.False(t, j1.Remote)
	assert.Equal(t, "Build Go services", j1.Overview)
	assert.Equal(t, []string{"Go", "SQL"}, j1.Qualifications)
	assert.Equal(t, []string{"Health", "401k"}, j1.Benefits)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), j1.PostedAt)
	require.NotNil(t, j1.Salary)
	assert.Equal(t, 150000, j1.Salary.Min)
	require.NotNil(t, j1.ExperienceLevel)
	assert.Equal(t, LevelSenior, *j1.ExperienceLevel)
	assert.Equal(t, []string{"go"}, j1.Tags)

	// Unresolved location: remote jobs become "Remote", on-site jobs the default
	assert.Equal(t, RemoteLocation, snap.Jobs[1].Location)
	assert.True(t, snap.Jobs[1].Remote)
	assert.Equal(t, DefaultLocation, snap.Jobs[2].Location)
	assert.Nil(t, snap.Jobs[2].Salary)
	assert.Nil(t, snap.Jobs[2].ExperienceLevel)

	// Fallbacks for a blank record
	blank := snap.Jobs[3]
	assert.Equal(t, UntitledPosition, blank.Title)
	assert.Equal(t, UnknownCompany, blank.Company)
	assert.Len(t, blank.ID, 16)

	// Invalid salary is dropped, not fatal
	assert.Nil(t, snap.Jobs[4].Salary)

	require.Len(t, snap.Companies, 2)
	acme, ok := snap.CompanyFor("  ACME ")
	require.True(t, ok)
	assert.Equal(t, 1200, acme.Size)
	assert.Equal(t, 1999, acme.Founded)
	assert.Equal(t, "Austin, TX", acme.Headquarters)

	globex, ok := snap.CompanyFor("globex")
	require.True(t, ok)
	assert.Zero(t, globex.Size)
	assert.Equal(t, "Springfield, USA", globex.Headquarters)

	_, ok = snap.CompanyFor("Initech")
	assert.False(t, ok)

	stats := snap.Stats
	assert.Equal(t, 5, stats.Jobs)
	assert.Equal(t, 2, stats.Companies)
	assert.Equal(t, 2, stats.Locations)
	assert.Equal(t, 1, stats.Closed)
	assert.Equal(t, 2, stats.Duplicates) // job j1 and company ACME
	// blank job, Intern bad salary, Globex bad size, nameless company
	assert.Equal(t, 4, stats.Malformed)
}

func TestLoader_FallbackIDIsDeterministic(t *testing.T) {
	src := &fakeSource{jobs: []core.JobRecord{{Title: "Engineer", Company: "Acme"}}}
	loader, err := NewLoader(src)
	require.NoError(t, err)

	a, err := loader.Load(context.Background())
	require.NoError(t, err)
	b, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.Jobs[0].ID, b.Jobs[0].ID)
}

func TestLoader_DefaultLocationOption(t *testing.T) {
	src := &fakeSource{jobs: []core.JobRecord{{ID: "x", Title: "Engineer", Company: "Acme"}}}
	loader, err := NewLoader(src, WithDefaultLocation("New York, NY"))
	require.NoError(t, err)

	snap, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "New York, NY", snap.Jobs[0].Location)
}

func TestLoader_MissingCollectionFails(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fakeSource)
	}{
		{"jobs", func(f *fakeSource) { f.jobsErr = errors.New("no such file") }},
		{"companies", func(f *fakeSource) { f.companiesErr = errors.New("permission denied") }},
		{"locations", func(f *fakeSource) { f.locationsErr = errors.New("bad header") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testSource()
			tt.mutate(src)
			loader, err := NewLoader(src)
			require.NoError(t, err)

			snap, err := loader.Load(context.Background())
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, core.ErrDataUnavailable)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

// gatedLoader blocks every load until release is closed.
type gatedLoader struct {
	release chan struct{}
	loads   atomic.Int32
	err     error
}

func (g *gatedLoader) Load(ctx context.Context) (*Snapshot, error) {
	g.loads.Add(1)
	<-g.release
	if g.err != nil {
		return nil, g.err
	}
	return NewSnapshot([]*core.Job{{ID: "j"}}, nil), nil
}

func TestNewManager_RequiresLoader(t *testing.T) {
	_, err := NewManager(nil, nil)
	assert.Equal(t, ErrLoaderRequired, err)
}

func TestManager_ConcurrentCallersShareOneLoad(t *testing.T) {
	loader := &gatedLoader{release: make(chan struct{})}
	m, err := NewManager(loader, nil)
	require.NoError(t, err)

	const callers = 10
	var wg sync.WaitGroup
	snaps := make([]*Snapshot, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Snapshot(context.Background())
			assert.NoError(t, err)
			snaps[i] = s
		}()
	}

	require.Eventually(t, func() bool { return loader.loads.Load() == 1 }, time.Second, time.Millisecond)
	close(loader.release)
	wg.Wait()

	assert.Equal(t, int32(1), loader.loads.Load())
	for _, s := range snaps {
		assert.Same(t, snaps[0], s)
	}
	assert.Same(t, snaps[0], m.Current())
}

func TestManager_InvalidateForcesReload(t *testing.T) {
	src := testSource()
	loader, err := NewLoader(src)
	require.NoError(t, err)
	m, err := NewManager(loader, nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := m.Snapshot(ctx)
	require.NoError(t, err)
	again, err := m.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, int32(1), src.calls.Load())

	m.Invalidate()
	assert.Nil(t, m.Current())

	second, err := m.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestManager_ReloadSwapsSnapshot(t *testing.T) {
	src := testSource()
	loader, err := NewLoader(src)
	require.NoError(t, err)
	m, err := NewManager(loader, nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := m.Snapshot(ctx)
	require.NoError(t, err)

	src.jobs = src.jobs[:1]
	second, err := m.Reload(ctx)
	require.NoError(t, err)
	assert.Len(t, second.Jobs, 1)
	assert.Same(t, second, m.Current())
	assert.NotSame(t, first, second)
}

func TestManager_FailedLoadKeepsNothing(t *testing.T) {
	src := testSource()
	src.jobsErr = errors.New("gone")
	loader, err := NewLoader(src)
	require.NoError(t, err)
	m, err := NewManager(loader, nil)
	require.NoError(t, err)

	_, err = m.Snapshot(context.Background())
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
	assert.Nil(t, m.Current())

	src.jobsErr = nil
	s, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, s.Jobs)
}

func TestManager_InvalidateDuringLoadDiscardsResult(t *testing.T) {
	loader := &gatedLoader{release: make(chan struct{})}
	m, err := NewManager(loader, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Snapshot(context.Background())
	}()
	require.Eventually(t, func() bool { return loader.loads.Load() == 1 }, time.Second, time.Millisecond)

	m.Invalidate()
	close(loader.release)
	<-done

	assert.Nil(t, m.Current())
}

func TestManager_CallerCancellation(t *testing.T) {
	loader := &gatedLoader{release: make(chan struct{})}
	m, err := NewManager(loader, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(loader.release)
	s, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s)
}
