package match

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

func internCandidate() *jobs.Candidate {
	return &jobs.Candidate{
		Contact:            jobs.Contact{Email: "alice@example.com"},
		Skills:             []string{"python", "sql"},
		PreferredLocations: []string{"Toronto, ON"},
	}
}

func internPosting() jobs.Posting {
	return jobs.Posting{
		ID:          "job-1",
		Title:       "Software Engineering Intern",
		Description: "We are looking for a Python developer intern with SQL experience.",
		Location:    "Remote",
	}
}

func sumDeltas(result Result) int {
	total := 0
	for _, c := range result.Contributions {
		total += c.Delta
	}

	return total
}

func TestScoreRemoteInternPosting(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(DefaultWeights(), zap.NewNop())
	result := scorer.Score(internPosting(), internCandidate())

	if result.Score < 60 {
		t.Fatalf("expected score >= 60, got %d", result.Score)
	}

	positive := 0
	for _, c := range result.Contributions {
		if c.Delta > 0 {
			positive++
		}
	}
	if positive != 2 {
		t.Fatalf("expected two positive contributions, got %d: %+v", positive, result.Contributions)
	}

	if !strings.Contains(result.Contributions[0].Reason, "matched 2 of 2 skills") {
		t.Fatalf("unexpected skill reason %q", result.Contributions[0].Reason)
	}
}

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(DefaultWeights(), zap.NewNop())

	first := scorer.Score(internPosting(), internCandidate())

	// An unrelated call in between must not bleed into the repeat.
	scorer.Score(jobs.Posting{ID: "other", Title: "Senior Architect", Description: "10+ years"}, internCandidate())

	second := scorer.Score(internPosting(), internCandidate())

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got\n%+v\n%+v", first, second)
	}
}

func TestScoreSumOfContributions(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(DefaultWeights(), zap.NewNop())

	tests := []struct {
		name    string
		posting jobs.Posting
	}{
		{"intern posting", internPosting()},
		{
			"negative sum clamps to zero",
			jobs.Posting{
				ID:          "job-2",
				Title:       "Brand Ambassador",
				Description: "Unpaid role. Commission only compensation. PhD required. Graduate degree required.",
			},
		},
		{
			"everything positive",
			jobs.Posting{
				ID:          "job-3",
				Title:       "Python SQL Intern",
				Description: "python sql hybrid",
				Location:    "Toronto, ON (Hybrid)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := scorer.Score(tt.posting, internCandidate())

			if result.Score < 0 || result.Score > 100 {
				t.Fatalf("score out of range: %d", result.Score)
			}

			clamped := sumDeltas(result)
			if clamped < 0 {
				clamped = 0
			}
			if clamped > 100 {
				clamped = 100
			}
			if result.Score != clamped {
				t.Fatalf("expected clamped contribution sum %d, got score %d", clamped, result.Score)
			}
		})
	}
}

func TestSeniorityPenalty(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(DefaultWeights(), zap.NewNop())

	plain := internPosting()
	demanding := internPosting()
	demanding.Description += " Requires 5+ years experience."

	base := scorer.Score(plain, internCandidate())
	penalized := scorer.Score(demanding, internCandidate())

	if penalized.Score >= base.Score {
		t.Fatalf("expected seniority phrase to lower the score: %d vs %d", penalized.Score, base.Score)
	}

	found := false
	for _, c := range penalized.Contributions {
		if strings.Contains(c.Reason, "5+ years") && c.Delta < 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a seniority contribution, got %+v", penalized.Contributions)
	}
}

func TestSeniorMarkerSkippedForSeniorProfile(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(DefaultWeights(), zap.NewNop())

	posting := jobs.Posting{
		ID:          "job-4",
		Title:       "Senior Python Engineer",
		Description: "python sql",
	}

	junior := internCandidate()
	senior := internCandidate()
	senior.Experience = []jobs.Experience{{Title: "Senior Developer", StartYear: 2015, EndYear: 2023}}

	juniorResult := scorer.Score(posting, junior)
	seniorResult := scorer.Score(posting, senior)

	if juniorResult.Score >= seniorResult.Score {
		t.Fatalf("expected penalty only for the junior profile: %d vs %d", juniorResult.Score, seniorResult.Score)
	}
}

func TestRedFlagDeductionIsBounded(t *testing.T) {
	t.Parallel()

	weights := DefaultWeights()
	scorer := NewScorer(weights, zap.NewNop())

	posting := jobs.Posting{
		ID:          "job-5",
		Title:       "Opportunity",
		Description: "Unpaid position. Commission only. PhD required. Graduate degree required. Extensive experience expected.",
	}

	result := scorer.Score(posting, internCandidate())

	deduction := 0
	flagged := 0
	for _, c := range result.Contributions {
		if strings.HasPrefix(c.Reason, "red flag") {
			deduction += c.Delta
			flagged++
		}
	}

	if deduction != -weights.RedFlagMax {
		t.Fatalf("expected bounded deduction %d, got %d", -weights.RedFlagMax, deduction)
	}
	if flagged != weights.RedFlagMax/weights.RedFlagPenalty {
		t.Fatalf("expected %d red flag contributions, got %d", weights.RedFlagMax/weights.RedFlagPenalty, flagged)
	}
}

func TestLocationAndRemoteBonusesCompose(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(DefaultWeights(), zap.NewNop())

	posting := jobs.Posting{
		ID:          "job-6",
		Title:       "Python Intern",
		Description: "python and sql",
		Location:    "Toronto, ON (Hybrid)",
	}

	result := scorer.Score(posting, internCandidate())

	var location, remote bool
	for _, c := range result.Contributions {
		if strings.Contains(c.Reason, "matches preferred") && c.Delta > 0 {
			location = true
		}
		if strings.Contains(c.Reason, "remote-friendly") && c.Delta > 0 {
			remote = true
		}
	}

	if !location || !remote {
		t.Fatalf("expected both location and remote bonuses, got %+v", result.Contributions)
	}
}

func TestMissingEmailScoresZero(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(DefaultWeights(), zap.NewNop())

	tests := []struct {
		name      string
		candidate *jobs.Candidate
	}{
		{"no email", &jobs.Candidate{Skills: []string{"python"}}},
		{"nil profile", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := scorer.Score(internPosting(), tt.candidate)

			if result.Score != 0 {
				t.Fatalf("expected zero score, got %d", result.Score)
			}
			if len(result.Contributions) != 1 {
				t.Fatalf("expected a single explanatory contribution, got %+v", result.Contributions)
			}
			if !strings.Contains(result.Contributions[0].Reason, "email") {
				t.Fatalf("expected reason to mention the email, got %q", result.Contributions[0].Reason)
			}
		})
	}
}

func TestWeightOverrides(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(Weights{SkillPoints: 80}, zap.NewNop())

	posting := jobs.Posting{ID: "job-7", Title: "Python SQL", Description: "python sql"}
	result := scorer.Score(posting, internCandidate())

	if result.Contributions[0].Delta != 80 {
		t.Fatalf("expected overridden skill ceiling 80, got %d", result.Contributions[0].Delta)
	}
}
