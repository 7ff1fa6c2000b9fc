package filtering

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

type fakeHistory struct {
	ids map[string]struct{}
	err error
}

func (f *fakeHistory) SubmittedJobIDs(context.Context) (map[string]struct{}, error) {
	return f.ids, f.err
}

func posting(id, title, company string) jobs.Posting {
	return jobs.Posting{
		ID:       id,
		Title:    title,
		Company:  company,
		ATS:      jobs.ATSGeneric,
		ApplyURL: "https://example.com/" + id,
	}
}

func ids(postings []jobs.Posting) []string {
	out := make([]string, 0, len(postings))
	for _, p := range postings {
		out = append(out, p.ID)
	}
	return out
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	input := []jobs.Posting{
		posting("a", "Backend Engineer", "Acme"),
		posting("b", "backend engineer", "ACME"),
		posting("c", "Backend Engineer", "Globex"),
		posting("d", "", ""),
		posting("e", "", ""),
	}

	got, step, err := NewDedupe().Apply(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a", "c", "d", "e"}
	if strings.Join(ids(got), ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, ids(got))
	}
	if step.Initial != 5 || step.Dropped != 1 || step.Left != 4 {
		t.Errorf("unexpected step accounting %+v", step)
	}
}

func TestAppliedHistory(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{ids: map[string]struct{}{"b": {}}}
	input := []jobs.Posting{
		posting("a", "Backend Engineer", "Acme"),
		posting("b", "Data Engineer", "Acme"),
	}

	got, step, err := NewAppliedHistory(history).Apply(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("expected the applied posting dropped, got %v", ids(got))
	}
	if step.Dropped != 1 {
		t.Errorf("unexpected step accounting %+v", step)
	}
}

func TestAppliedHistoryPropagatesLookupErrors(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{err: errors.New("db locked")}

	_, _, err := NewAppliedHistory(history).Apply(context.Background(), []jobs.Posting{posting("a", "x", "y")})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "application history") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestCompanyBlocklist(t *testing.T) {
	t.Parallel()

	input := []jobs.Posting{
		posting("a", "Backend Engineer", "Acme"),
		posting("b", "Backend Engineer", "Globex"),
		posting("c", "Backend Engineer", ""),
	}

	got, _, err := NewCompanyBlocklist([]string{" acme ", ""}).Apply(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"b", "c"}
	if strings.Join(ids(got), ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, ids(got))
	}
}

func TestApplyable(t *testing.T) {
	t.Parallel()

	broken := posting("b", "Data Engineer", "Acme")
	broken.ATS = jobs.ATSUnknown
	missing := posting("c", "Platform Engineer", "Acme")
	missing.ApplyURL = ""

	input := []jobs.Posting{posting("a", "Backend Engineer", "Acme"), broken, missing}

	got, _, err := NewApplyable().Apply(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("expected only the actionable posting, got %v", ids(got))
	}
}

func TestMinScore(t *testing.T) {
	t.Parallel()

	scores := map[string]int{"a": 62, "b": 40}
	lookup := func(id string) (int, bool) {
		score, ok := scores[id]
		return score, ok
	}
	input := []jobs.Posting{
		posting("a", "Backend Engineer", "Acme"),
		posting("b", "Data Engineer", "Acme"),
		posting("c", "Unscored", "Acme"),
	}

	got, _, err := NewMinScore(50, lookup).Apply(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("expected only the posting above threshold, got %v", ids(got))
	}

	all, _, err := NewMinScore(0, lookup).Apply(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("zero threshold should pass everything, got %v", ids(all))
	}
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{ids: map[string]struct{}{"applied": {}}}
	steps := []Filter{
		NewDedupe(),
		NewApplyable(),
		NewAppliedHistory(history),
		NewCompanyBlocklist([]string{"Initech"}),
		NewMinScore(50, func(id string) (int, bool) { return map[string]int{"keep": 80, "low": 10}[id], true }),
	}

	input := []jobs.Posting{
		posting("keep", "Backend Engineer", "Acme"),
		posting("dup", "backend engineer", "acme"),
		posting("applied", "Data Engineer", "Acme"),
		posting("blocked", "Platform Engineer", "Initech"),
		posting("low", "Support Engineer", "Acme"),
	}

	got, err := Run(context.Background(), zap.NewNop(), steps, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("expected a single survivor, got %v", ids(got))
	}
}

func TestRunSkipsDisabledFilters(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{ids: map[string]struct{}{"applied": {}}}
	steps := []Filter{NewAppliedHistory(history)}
	DisableByName(steps, "applied-history", "flag requested re-application")

	input := []jobs.Posting{posting("applied", "Data Engineer", "Acme")}

	got, err := Run(context.Background(), zap.NewNop(), steps, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("disabled filter must not drop postings, got %v", ids(got))
	}

	statuses := Describe(steps)
	if len(statuses) != 1 || statuses[0].Enabled || statuses[0].Reason == "" {
		t.Errorf("unexpected status %+v", statuses)
	}
}

func TestRunStopsOnFailingStep(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{err: errors.New("db locked")}
	steps := []Filter{NewAppliedHistory(history)}

	_, err := Run(context.Background(), zap.NewNop(), steps, []jobs.Posting{posting("a", "x", "y")})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "applied-history") {
		t.Errorf("error should name the failing step, got %v", err)
	}
}
