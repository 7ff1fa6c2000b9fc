package match

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

// Result is one scoring outcome: the final clamped score and the ordered
// contributions that sum to it.
type Result struct {
	JobID         string
	Score         int
	Contributions []Contribution
}

// Contribution is one (reason, delta) pair, recorded in evaluation order.
type Contribution struct {
	Reason string
	Delta  int
}

// Scorer rates postings against a candidate profile. Scoring is a pure
// function of its two inputs: no state survives a call and identical inputs
// produce identical results, contributions included.
type Scorer struct {
	weights Weights
	logger  *zap.Logger
}

func NewScorer(weights Weights, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{weights: weights.withDefaults(), logger: logger}
}

var yearsPattern = regexp.MustCompile(`(\d+)\s*\+?\s*years?`)

// Score rates how well candidate fits posting on a 0-100 scale. It never
// fails: a malformed profile scores zero with a reason saying why.
func (s *Scorer) Score(posting jobs.Posting, candidate *jobs.Candidate) Result {
	result := Result{JobID: posting.ID}

	if candidate == nil || strings.TrimSpace(candidate.Contact.Email) == "" {
		result.Contributions = []Contribution{{
			Reason: "profile is missing a contact email",
			Delta:  0,
		}}
		return result
	}

	text := strings.ToLower(posting.Title + " " + posting.Description)
	tokens := tokenize(text)

	// Skill overlap, scaled by the fraction of profile skills present.
	if len(candidate.Skills) == 0 {
		result.Contributions = append(result.Contributions, Contribution{
			Reason: "profile lists no skills",
			Delta:  0,
		})
	} else {
		matched := matchedSkills(tokens, text, candidate.Skills)
		delta := int(math.Round(float64(s.weights.SkillPoints) * float64(len(matched)) / float64(len(candidate.Skills))))

		reason := fmt.Sprintf("matched %d of %d skills", len(matched), len(candidate.Skills))
		if len(matched) > 0 {
			reason += ": " + strings.Join(matched, ", ")
		}
		result.Contributions = append(result.Contributions, Contribution{Reason: reason, Delta: delta})
	}

	// Seniority demanded beyond the profile's level.
	if reason, gap := s.seniorityGap(text, candidate); gap {
		result.Contributions = append(result.Contributions, Contribution{
			Reason: reason,
			Delta:  -s.weights.SeniorityPenalty,
		})
	}

	// Location against the preferred list.
	location := strings.ToLower(posting.Location)
	for _, pref := range candidate.PreferredLocations {
		pref = strings.ToLower(strings.TrimSpace(pref))
		if pref == "" || location == "" {
			continue
		}
		if strings.Contains(location, pref) {
			result.Contributions = append(result.Contributions, Contribution{
				Reason: fmt.Sprintf("location %q matches preferred %q", posting.Location, pref),
				Delta:  s.weights.LocationBonus,
			})
			break
		}
	}

	// Remote indicators count wherever they appear, preferred list or not.
	if marker, found := containsMarker(text+" "+location, s.weights.RemoteMarkers); found {
		result.Contributions = append(result.Contributions, Contribution{
			Reason: fmt.Sprintf("remote-friendly posting (%q)", marker),
			Delta:  s.weights.RemoteBonus,
		})
	}

	// Red flags, additive per occurrence but bounded in total.
	remaining := s.weights.RedFlagMax
	for _, flag := range s.weights.RedFlags {
		if remaining <= 0 {
			break
		}
		if flag == "" || !strings.Contains(text, strings.ToLower(flag)) {
			continue
		}

		penalty := s.weights.RedFlagPenalty
		if penalty > remaining {
			penalty = remaining
		}
		remaining -= penalty

		result.Contributions = append(result.Contributions, Contribution{
			Reason: fmt.Sprintf("red flag %q", flag),
			Delta:  -penalty,
		})
	}

	total := 0
	for _, c := range result.Contributions {
		total += c.Delta
	}
	result.Score = clamp(total)

	s.logger.Debug("scored posting",
		zap.String("job_id", posting.ID),
		zap.Int("score", result.Score),
		zap.Int("signals", len(result.Contributions)),
	)

	return result
}

// matchedSkills reports which profile skills appear in the posting text.
// Single-token skills resolve against the token set; phrases and dotted names
// fall back to substring search.
func matchedSkills(tokens map[string]bool, text string, skills []string) []string {
	matched := make([]string, 0, len(skills))
	for _, skill := range skills {
		if skill == "" {
			continue
		}
		if strings.ContainsAny(skill, " -.") {
			if strings.Contains(text, skill) {
				matched = append(matched, skill)
			}
		} else if tokens[skill] {
			matched = append(matched, skill)
		}
	}

	return matched
}

// seniorityGap reports whether the posting demands a level the profile does
// not show: a years-of-experience threshold above the candidate's, or a
// senior-title marker the candidate's own titles lack.
func (s *Scorer) seniorityGap(text string, candidate *jobs.Candidate) (string, bool) {
	apparent := candidate.ApparentYears()

	demanded := 0
	for _, m := range yearsPattern.FindAllStringSubmatch(text, -1) {
		years, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if years > demanded {
			demanded = years
		}
	}
	if demanded > apparent {
		return fmt.Sprintf("asks for %d+ years of experience, profile shows %d", demanded, apparent), true
	}

	if marker, found := containsMarker(text, s.weights.SeniorMarkers); found && !candidateIsSenior(candidate, s.weights.SeniorMarkers) {
		return fmt.Sprintf("senior-level posting (%q) without matching profile experience", marker), true
	}

	return "", false
}

func candidateIsSenior(candidate *jobs.Candidate, markers []string) bool {
	for _, e := range candidate.Experience {
		if _, found := containsMarker(strings.ToLower(e.Title), markers); found {
			return true
		}
	}

	return false
}

func containsMarker(text string, markers []string) (string, bool) {
	for _, marker := range markers {
		if marker == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(marker)) {
			return marker, true
		}
	}

	return "", false
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}

	return score
}
