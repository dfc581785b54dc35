package corpus

import (
	"time"

	"github.com/poiesic/jobsift/core"
)

// LoadStats counts what the loader kept, skipped and repaired.
type LoadStats struct {
	Jobs       int `json:"jobs"`       // jobs in the snapshot
	Companies  int `json:"companies"`  // companies in the snapshot
	Locations  int `json:"locations"`  // location records read
	Malformed  int `json:"malformed"`  // records repaired with fallbacks or dropped as unusable
	Closed     int `json:"closed"`     // jobs excluded because is_open was explicitly false
	Duplicates int `json:"duplicates"` // duplicate job IDs and company names dropped
}

// Snapshot is an immutable, fully normalized view of the corpus.
type Snapshot struct {
	Jobs      []*core.Job
	Companies []*core.Company
	Stats     LoadStats
	LoadedAt  time.Time

	companies map[string]*core.Company
}

func newSnapshot(jobs []*core.Job, companies []*core.Company, stats LoadStats) *Snapshot {
	s := &Snapshot{
		Jobs:      jobs,
		Companies: companies,
		Stats:     stats,
		LoadedAt:  time.Now().UTC(),
		companies: make(map[string]*core.Company, len(companies)),
	}
	for _, c := range companies {
		s.companies[normalizeName(c.Name)] = c
	}
	return s
}

// NewSnapshot builds a snapshot from already normalized jobs and companies.
func NewSnapshot(jobs []*core.Job, companies []*core.Company) *Snapshot {
	return newSnapshot(jobs, companies, LoadStats{Jobs: len(jobs), Companies: len(companies)})
}

// CompanyFor resolves an employer name, case-insensitively and ignoring
// surrounding whitespace.
func (s *Snapshot) CompanyFor(name string) (*core.Company, bool) {
	c, ok := s.companies[normalizeName(name)]
	return c, ok
}
