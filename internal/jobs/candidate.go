package jobs

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Contact carries the values used to fill application contact fields. Email is
// the only field the scorer treats as required.
type Contact struct {
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// Experience is one work history entry. An EndYear of zero means the position
// is current.
type Experience struct {
	Title     string `yaml:"title"`
	Company   string `yaml:"company"`
	StartYear int    `yaml:"start_year"`
	EndYear   int    `yaml:"end_year"`
}

// Education is one education history entry.
type Education struct {
	School string `yaml:"school"`
	Degree string `yaml:"degree"`
	Field  string `yaml:"field"`
	Year   int    `yaml:"year"`
}

// Candidate is the profile the scorer and the form filler read. It is loaded
// once per run and treated as read-only afterwards.
type Candidate struct {
	Contact            Contact      `yaml:"contact"`
	Skills             []string     `yaml:"skills"`
	YearsExperience    int          `yaml:"years_experience"`
	Experience         []Experience `yaml:"experience"`
	Education          []Education  `yaml:"education"`
	PreferredLocations []string     `yaml:"preferred_locations"`
}

// LoadCandidate reads a candidate profile from a YAML file. Skills are
// normalized and deduplicated on load. A missing email is not an error here;
// the scorer reports it as a zero score with an explanatory reason instead.
func LoadCandidate(path string) (*Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidate profile %q: %w", path, err)
	}

	var candidate Candidate
	if err := yaml.Unmarshal(data, &candidate); err != nil {
		return nil, fmt.Errorf("parsing candidate profile %q: %w", path, err)
	}

	candidate.Skills = NormalizeSkills(candidate.Skills)

	return &candidate, nil
}

// NormalizeSkills lowercases, trims, deduplicates and sorts skill tokens so
// every consumer iterates them in the same order.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	result := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		result = append(result, skill)
	}
	sort.Strings(result)

	return result
}

// ApparentYears reports the candidate's years of experience. An explicit
// years_experience value wins; otherwise the value is derived from the
// experience entries, closing open-ended entries at the latest year the
// profile mentions so the result depends on the profile alone.
func (c *Candidate) ApparentYears() int {
	if c.YearsExperience > 0 {
		return c.YearsExperience
	}

	latest := 0
	for _, e := range c.Experience {
		if e.EndYear > latest {
			latest = e.EndYear
		}
		if e.StartYear > latest {
			latest = e.StartYear
		}
	}

	years := 0
	for _, e := range c.Experience {
		if e.StartYear <= 0 {
			continue
		}
		end := e.EndYear
		if end <= 0 {
			end = latest
		}
		if end > e.StartYear {
			years += end - e.StartYear
		}
	}

	return years
}

// FullName joins the contact's first and last name, tolerating either being
// empty.
func (c *Candidate) FullName() string {
	first := strings.TrimSpace(c.Contact.FirstName)
	last := strings.TrimSpace(c.Contact.LastName)

	return strings.TrimSpace(first + " " + last)
}
