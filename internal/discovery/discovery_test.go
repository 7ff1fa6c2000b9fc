package discovery

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

type fakeSource struct {
	name     string
	postings []jobs.Posting
	err      error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]jobs.Posting, error) {
	return f.postings, f.err
}

func TestGatherMergesAndSorts(t *testing.T) {
	t.Parallel()

	lever := &fakeSource{name: "lever", postings: []jobs.Posting{
		{ID: "lever:acme:b", Source: "lever"},
		{ID: "lever:acme:a", Source: "lever"},
	}}
	greenhouse := &fakeSource{name: "greenhouse", postings: []jobs.Posting{
		{ID: "greenhouse:acme:9", Source: "greenhouse"},
	}}

	got := Gather(context.Background(), zap.NewNop(), lever, greenhouse)

	want := []string{"greenhouse:acme:9", "lever:acme:a", "lever:acme:b"}
	if len(got) != len(want) {
		t.Fatalf("expected %d postings, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("posting %d: expected ID %q, got %q", i, want[i], got[i].ID)
		}
	}
}

func TestGatherSkipsFailingSource(t *testing.T) {
	t.Parallel()

	bad := &fakeSource{name: "mail", err: errors.New("imap down")}
	good := &fakeSource{name: "lever", postings: []jobs.Posting{
		{ID: "lever:acme:a", Source: "lever"},
	}}

	got := Gather(context.Background(), zap.NewNop(), bad, good)

	if len(got) != 1 {
		t.Fatalf("expected the healthy source's posting, got %d postings", len(got))
	}
	if got[0].ID != "lever:acme:a" {
		t.Errorf("unexpected posting %q", got[0].ID)
	}
}

func TestGatherWithoutSources(t *testing.T) {
	t.Parallel()

	if got := Gather(context.Background(), zap.NewNop()); len(got) != 0 {
		t.Fatalf("expected no postings, got %d", len(got))
	}
}
