package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a 64-bit content hash.
// Used for fallback job identifiers and embedding fingerprints.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// JobRecord is a job posting as it appears in the backing store.
// All fields are raw strings; normalization happens in the corpus package.
type JobRecord struct {
	ID                     string
	Title                  string
	Company                string // Employer name, joined against CompanyRecord.Name
	LocationID             string
	Remote                 string // "true"/"false", anything else is false
	Overview               string
	Responsibilities       string
	Qualifications         string // Delimiter-joined list
	OptionalQualifications string
	Benefits               string // Delimiter-joined list
	CreatedAt              string
	IsOpen                 string // Optional; explicit "false" excludes the job
	SalaryMin              string // Optional
	SalaryMax              string // Optional
}

// CompanyRecord is an employer as it appears in the backing store.
type CompanyRecord struct {
	ID             string
	Name           string
	Industry       string
	Focus          string
	Details        string
	Size           string // Employee count; absent or invalid means 0
	Stage          string
	Funding        string
	FoundedYear    string
	HeadquartersID string
	Website        string
}

// LocationRecord is an address referenced by jobs and companies.
type LocationRecord struct {
	ID      string
	City    string
	State   string
	Country string
	Address string
}

// SalaryRange is an annual compensation range.
type SalaryRange struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Currency string `json:"currency"`
}

// Overlaps reports whether the range intersects [min, max].
// A zero bound on either side is treated as open.
func (s *SalaryRange) Overlaps(min, max int) bool {
	if max > 0 && s.Min > 0 && s.Min > max {
		return false
	}
	if min > 0 && s.Max > 0 && s.Max < min {
		return false
	}
	return true
}

// Job is the normalized, denormalized view of a JobRecord used for ranking.
type Job struct {
	ID               string
	Title            string
	Company          string
	Location         string // Resolved location string, never empty
	Remote           bool
	Overview         string
	Responsibilities []string
	Qualifications   []string
	Optional         []string // Nice-to-have qualifications; not embedded
	Benefits         []string
	PostedAt         time.Time
	Salary           *SalaryRange // nil when the store carries no salary data
	ExperienceLevel  *string      // nil when it cannot be inferred from the title
	Tags             []string
}

// EmbeddingText returns the composed text that is sent to the embedding provider.
func (j *Job) EmbeddingText() string {
	text := j.Title + " " + j.Company + " " + j.Overview
	for _, q := range j.Qualifications {
		text += " " + q
	}
	return text
}

// Fingerprint identifies the current embedding text of the job.
func (j *Job) Fingerprint() ID {
	return IDFromContent(j.EmbeddingText())
}

// Company is the normalized view of a CompanyRecord.
type Company struct {
	ID           string
	Name         string
	Industry     string
	Focus        string
	Details      string
	Size         int
	Stage        string
	Funding      string
	Founded      int
	Headquarters string
	Website      string
}

// EmbeddingEntry is a cached job vector.
type EmbeddingEntry struct {
	JobID       string
	Vector      []float32
	Fingerprint ID     // Hash of the text the vector was computed from
	Model       string // Embedding model that produced the vector
	CreatedAt   time.Time
}

// FreshFor reports whether the entry still matches the job's text and the given model.
func (e *EmbeddingEntry) FreshFor(job *Job, model string) bool {
	return e.Fingerprint == job.Fingerprint() && e.Model == model && len(e.Vector) > 0
}

// ScoredJob pairs a job with its similarity to the query.
type ScoredJob struct {
	Job   *Job
	Score float64 // Cosine similarity in [-1, 1]
	Rank  int     // 1-based position in the ranked list
}
