package csv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/jobsift/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobsCSV = `id,company,name,overview,responsibilities,qualifications,optional_qualifications,location,benefits,remote,created_at,updated_at,is_open
j1,Acme,Backend Engineer,"Build APIs, at scale",Own services,"Go, SQL",Kubernetes,a1,Health;401k,False,2024-05-01T00:00:00Z,2024-05-01T00:00:00Z,True
j2,Globex,Data Scientist,Models,,Python,,a2,,true,2024-05-02T00:00:00Z,,False
`

const companiesCSV = `id,name,industry,focus,details,size,stage,funding,founded_year,headquarters,website
c1,Acme,Software,Developer tools,Makes APIs,"1,200",Established,Public,1999,a1,https://acme.example
`

const addressesCSV = "\ufeffid,city,state,country,street_address\na1,Austin,TX,USA,1 Main St\na2,Berlin,,Germany,Unknown\n"

func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestNewSource_RequiresDir(t *testing.T) {
	_, err := NewSource("")
	assert.Equal(t, ErrDirRequired, err)
}

func TestSource_ReadsAllCollections(t *testing.T) {
	dir := writeFixture(t, map[string]string{
		DefaultJobsFile:      jobsCSV,
		DefaultCompaniesFile: companiesCSV,
		DefaultAddressesFile: addressesCSV,
	})
	src, err := NewSource(dir)
	require.NoError(t, err)
	ctx := context.Background()

	jobs, err := src.Jobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j1", jobs[0].ID)
	assert.Equal(t, "Backend Engineer", jobs[0].Title)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, "a1", jobs[0].LocationID)
	assert.Equal(t, "Build APIs, at scale", jobs[0].Overview)
	assert.Equal(t, "Go, SQL", jobs[0].Qualifications)
	assert.Equal(t, "False", jobs[0].Remote)
	assert.Equal(t, "True", jobs[0].IsOpen)
	assert.Empty(t, jobs[0].SalaryMin)
	assert.Equal(t, "False", jobs[1].IsOpen)

	companies, err := src.Companies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "1,200", companies[0].Size)
	assert.Equal(t, "1999", companies[0].FoundedYear)
	assert.Equal(t, "a1", companies[0].HeadquartersID)

	locations, err := src.Locations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "a1", locations[0].ID, "byte order mark is stripped from the header")
	assert.Equal(t, "1 Main St", locations[0].Address)
	assert.Equal(t, "Germany", locations[1].Country)
}

func TestSource_MissingFile(t *testing.T) {
	dir := writeFixture(t, map[string]string{DefaultJobsFile: jobsCSV})
	src, err := NewSource(dir)
	require.NoError(t, err)

	_, err = src.Companies(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSource_MissingRequiredColumn(t *testing.T) {
	dir := writeFixture(t, map[string]string{
		DefaultJobsFile: "title,company\nEngineer,Acme\n",
	})
	src, err := NewSource(dir)
	require.NoError(t, err)

	_, err = src.Jobs(context.Background())
	assert.ErrorIs(t, err, storage.ErrMissingColumn)
}

func TestSource_EmptyFile(t *testing.T) {
	dir := writeFixture(t, map[string]string{DefaultAddressesFile: ""})
	src, err := NewSource(dir)
	require.NoError(t, err)

	_, err = src.Locations(context.Background())
	assert.ErrorIs(t, err, storage.ErrMissingColumn)
}

func TestSource_CustomFileNames(t *testing.T) {
	dir := writeFixture(t, map[string]string{"postings.csv": "id,title\nx,Engineer\n"})
	src, err := NewSource(dir, WithFiles("postings.csv", "", ""))
	require.NoError(t, err)

	jobs, err := src.Jobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Engineer", jobs[0].Title)
}

func TestSource_CancelledContext(t *testing.T) {
	dir := writeFixture(t, map[string]string{DefaultJobsFile: jobsCSV})
	src, err := NewSource(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Jobs(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
