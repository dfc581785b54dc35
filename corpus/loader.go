// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/jobsift/config"
	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultLocation is used for on-site jobs whose location cannot be resolved.
const DefaultLocation = "San Francisco, CA"

var (
	// ErrSourceRequired is returned when no record source is given.
	ErrSourceRequired = errors.New("record source required")

	// ErrLoaderRequired is returned when no snapshot loader is given.
	ErrLoaderRequired = errors.New("snapshot loader required")
)

// Loader reads the three record collections and normalizes them into a Snapshot.
type Loader struct {
	source          storage.RecordSource
	defaultLocation string
	tagRules        []config.TagRule
	logger          *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDefaultLocation sets the location used for unresolvable on-site jobs.
func WithDefaultLocation(location string) LoaderOption {
	return func(l *Loader) {
		if location = strings.TrimSpace(location); location != "" {
			l.defaultLocation = location
		}
	}
}

// WithTagRules sets the rules used to tag jobs.
func WithTagRules(rules []config.TagRule) LoaderOption {
	return func(l *Loader) {
		l.tagRules = rules
	}
}

// WithLoaderLogger sets a custom logger.
// Default is slog.Default().
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader over source.
func NewLoader(source storage.RecordSource, opts ...LoaderOption) (*Loader, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	l := &Loader{
		source:          source,
		defaultLocation: DefaultLocation,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "corpus-loader")
	return l, nil
}

// Load fetches jobs, companies and locations concurrently and normalizes them.
// Any collection that cannot be read fails the load with core.ErrDataUnavailable.
// Individual malformed records never fail the load.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	var (
		jobRecords     []core.JobRecord
		companyRecords []core.CompanyRecord
		locRecords     []core.LocationRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		jobRecords, err = l.source.Jobs(gctx)
		if err != nil {
			return fmt.Errorf("%w: jobs: %w", core.ErrDataUnavailable, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		companyRecords, err = l.source.Companies(gctx)
		if err != nil {
			return fmt.Errorf("%w: companies: %w", core.ErrDataUnavailable, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		locRecords, err = l.source.Locations(gctx)
		if err != nil {
			return fmt.Errorf("%w: locations: %w", core.ErrDataUnavailable, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		l.logger.Error("corpus load failed", "err", err)
		return nil, err
	}

	var stats LoadStats
	stats.Locations = len(locRecords)

	locations := make(map[string]string, len(locRecords))
	for _, rec := range locRecords {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			continue
		}
		if formatted := FormatLocation(rec); formatted != "" {
			locations[id] = formatted
		}
	}

	companies := l.normalizeCompanies(companyRecords, locations, &stats)
	jobs := l.normalizeJobs(jobRecords, locations, &stats)

	stats.Jobs = len(jobs)
	stats.Companies = len(companies)
	l.logger.Info("corpus loaded",
		"jobs", stats.Jobs,
		"companies", stats.Companies,
		"locations", stats.Locations,
		"malformed", stats.Malformed,
		"closed", stats.Closed,
		"duplicates", stats.Duplicates)

	return newSnapshot(jobs, companies, stats), nil
}

func (l *Loader) normalizeCompanies(records []core.CompanyRecord, locations map[string]string, stats *LoadStats) []*core.Company {
	out := make([]*core.Company, 0, len(records))
	seen := make(map[string]bool, len(records))

	for i := range records {
		rec := &records[i]
		if err := core.ValidateCompanyRecord(rec); err != nil {
			stats.Malformed++
			l.logger.Debug("recovering malformed company", "err", err)
		}

		key := normalizeName(rec.Name)
		if key == "" {
			// Nothing can join against a nameless company
			continue
		}
		if seen[key] {
			stats.Duplicates++
			continue
		}
		seen[key] = true

		size, _ := core.ParseCount(rec.Size)
		founded, _ := core.ParseCount(rec.FoundedYear)

		hq := strings.TrimSpace(rec.HeadquartersID)
		if resolved, ok := locations[hq]; ok {
			hq = resolved
		}

		out = append(out, &core.Company{
			ID:           strings.TrimSpace(rec.ID),
			Name:         strings.TrimSpace(rec.Name),
			Industry:     strings.TrimSpace(rec.Industry),
			Focus:        strings.TrimSpace(rec.Focus),
			Details:      strings.TrimSpace(rec.Details),
			Size:         size,
			Stage:        strings.TrimSpace(rec.Stage),
			Funding:      strings.TrimSpace(rec.Funding),
			Founded:      founded,
			Headquarters: hq,
			Website:      strings.TrimSpace(rec.Website),
		})
	}
	return out
}

func (l *Loader) normalizeJobs(records []core.JobRecord, locations map[string]string, stats *LoadStats) []*core.Job {
	out := make([]*core.Job, 0, len(records))
	seen := make(map[string]bool, len(records))

	for i := range records {
		rec := &records[i]
		if parseClosed(rec.IsOpen) {
			stats.Closed++
			continue
		}

		if err := core.ValidateJobRecord(rec); err != nil {
			stats.Malformed++
			l.logger.Debug("recovering malformed job", "err", err)
		}

		title := strings.TrimSpace(rec.Title)
		if title == "" {
			title = UntitledPosition
		}
		company := strings.TrimSpace(rec.Company)
		if company == "" {
			company = UnknownCompany
		}
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			id = fmt.Sprintf("%016x", uint64(core.IDFromContent(company+title)))
		}
		if seen[id] {
			stats.Duplicates++
			continue
		}
		seen[id] = true

		remote := ParseRemote(rec.Remote)
		location, ok := locations[strings.TrimSpace(rec.LocationID)]
		if !ok {
			if remote {
				location = RemoteLocation
			} else {
				location = l.defaultLocation
			}
		}

		salary, err := parseSalary(rec.SalaryMin, rec.SalaryMax)
		if err != nil {
			stats.Malformed++
			l.logger.Debug("ignoring invalid salary", "job_id", id, "err", fmt.Errorf("%w: %w", core.ErrMalformedRecord, err))
		}

		overview := CleanOverview(rec.Overview)

		out = append(out, &core.Job{
			ID:               id,
			Title:            title,
			Company:          company,
			Location:         location,
			Remote:           remote,
			Overview:         overview,
			Responsibilities: SplitList(rec.Responsibilities),
			Qualifications:   SplitList(rec.Qualifications),
			Optional:         SplitList(rec.OptionalQualifications),
			Benefits:         SplitList(rec.Benefits),
			PostedAt:         parsePostedAt(rec.CreatedAt),
			Salary:           salary,
			ExperienceLevel:  InferExperienceLevel(title),
			Tags:             ApplyTags(l.tagRules, title, overview),
		})
	}
	return out
}
