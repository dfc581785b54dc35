package corpus

import (
	"strings"
	"testing"
	"time"

	"github.com/poiesic/jobsift/config"
	"github.com/poiesic/jobsift/core"
)

func TestParseRemote(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{" True ", true},
		{"false", false},
		{"yes", false},
		{"1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ParseRemote(tt.raw); got != tt.want {
			t.Errorf("ParseRemote(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"Go, SQL", []string{"Go", "SQL"}},
		{"Go;SQL|Docker", []string{"Go", "SQL", "Docker"}},
		{"• Go\n• SQL", []string{"Go", "SQL"}},
		{" , ;", []string{}},
		{"Experience with Python, Go and SQL", []string{"Experience with Python, Go and SQL"}},
		{"5+ years of backend work, ideally in fintech; Go, Kubernetes", []string{"5+ years of backend work, ideally in fintech", "Go", "Kubernetes"}},
		{"Strong communication skills. Comfortable with ambiguity, ownership", []string{"Strong communication skills. Comfortable with ambiguity, ownership"}},
		{"Health insurance, 401k, Remote work", []string{"Health insurance", "401k", "Remote work"}},
		{"Node.js, React", []string{"Node.js", "React"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		got := SplitList(tt.raw)
		if strings.Join(got, "/") != strings.Join(tt.want, "/") || len(got) != len(tt.want) {
			t.Errorf("SplitList(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCleanOverview(t *testing.T) {
	if got := CleanOverview("<p>Build <b>APIs</b></p>\n\n  at   scale &amp; speed"); got != "Build APIs at scale & speed" {
		t.Errorf("CleanOverview html = %q", got)
	}

	long := strings.Repeat("a", MaxOverviewLength+50)
	got := CleanOverview(long)
	if len([]rune(got)) != MaxOverviewLength || !strings.HasSuffix(got, "...") {
		t.Errorf("CleanOverview truncation: len %d, suffix %q", len([]rune(got)), got[len(got)-3:])
	}

	exact := strings.Repeat("b", MaxOverviewLength)
	if CleanOverview(exact) != exact {
		t.Error("CleanOverview truncated text at the limit")
	}
}

func TestFormatLocation(t *testing.T) {
	tests := []struct {
		name string
		loc  core.LocationRecord
		want string
	}{
		{"us city", core.LocationRecord{City: "Austin", State: "TX", Country: "USA"}, "Austin, TX"},
		{"united states", core.LocationRecord{City: "Austin", State: "TX", Country: "United States"}, "Austin, TX"},
		{"foreign", core.LocationRecord{City: "Berlin", Country: "Germany"}, "Berlin, Germany"},
		{"foreign with region", core.LocationRecord{City: "Toronto", State: "ON", Country: "Canada"}, "Toronto, ON, Canada"},
		{"city holds state", core.LocationRecord{City: "Seattle, WA", Country: "USA"}, "Seattle, WA"},
		{"unknown parts", core.LocationRecord{City: "Unknown", State: "Unknown", Country: "Unknown"}, ""},
		{"empty", core.LocationRecord{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLocation(tt.loc); got != tt.want {
				t.Errorf("FormatLocation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInferExperienceLevel(t *testing.T) {
	tests := []struct {
		title string
		want  string // "" means nil
	}{
		{"Software Engineering Intern", LevelEntry},
		{"Junior Backend Developer", LevelEntry},
		{"Senior Data Scientist", LevelSenior},
		{"Sr. ML Engineer", LevelSenior},
		{"Staff Engineer", LevelLead},
		{"Senior Staff Engineer", LevelLead},
		{"Tech Lead, Platform", LevelLead},
		{"Backend Engineer", ""},
		{"Leadership Coach", ""},
	}
	for _, tt := range tests {
		got := InferExperienceLevel(tt.title)
		switch {
		case tt.want == "" && got != nil:
			t.Errorf("InferExperienceLevel(%q) = %q, want nil", tt.title, *got)
		case tt.want != "" && (got == nil || *got != tt.want):
			t.Errorf("InferExperienceLevel(%q) = %v, want %q", tt.title, got, tt.want)
		}
	}
}

func TestApplyTags(t *testing.T) {
	rules := []config.TagRule{
		{Tag: "python", Any: []string{"python", "django"}},
		{Tag: "ml", Any: []string{"Machine Learning"}},
		{Tag: "python", Any: []string{"flask"}},
		{Tag: "go", Any: []string{"golang"}},
	}
	got := ApplyTags(rules, "ML Engineer", "Django and machine learning with Flask")
	if strings.Join(got, ",") != "python,ml" {
		t.Errorf("ApplyTags() = %v", got)
	}
	if got := ApplyTags(nil, "x", "y"); got == nil || len(got) != 0 {
		t.Errorf("ApplyTags(nil) = %#v, want empty non-nil", got)
	}
}

func TestParsePostedAt(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	for _, raw := range []string{"2024-05-01T12:30:00Z", "2024-05-01T12:30:00.000000Z", "2024-05-01 12:30:00"} {
		if got := parsePostedAt(raw); !got.Equal(want) {
			t.Errorf("parsePostedAt(%q) = %v", raw, got)
		}
	}
	if !parsePostedAt("yesterday").IsZero() {
		t.Error("parsePostedAt accepted garbage")
	}
}

func TestParseSalary(t *testing.T) {
	s, err := parseSalary("150,000", "120000")
	if err != nil || s == nil || s.Min != 120000 || s.Max != 150000 {
		t.Errorf("parseSalary swapped = %+v, %v", s, err)
	}
	if s, err := parseSalary("", ""); s != nil || err != nil {
		t.Errorf("parseSalary empty = %+v, %v", s, err)
	}
	if _, err := parseSalary("lots", ""); err == nil {
		t.Error("parseSalary accepted garbage")
	}
}
