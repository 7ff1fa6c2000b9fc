package filtering

import (
	"context"
	"strings"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

type dedupeFilter struct {
	toggle
}

// NewDedupe creates a filter that collapses postings sharing a title and
// company, case-insensitively. The first occurrence wins, so the stable
// source order upstream decides which copy survives.
func NewDedupe() Filter {
	return &dedupeFilter{}
}

func (f *dedupeFilter) Name() string { return "dedupe" }

func (f *dedupeFilter) Apply(_ context.Context, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)

	seen := map[string]bool{}
	kept := make([]jobs.Posting, 0, len(postings))

	for _, p := range postings {
		key := dedupeKey(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, p)
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

// dedupeKey identifies a posting by (title, company). Untitled postings fall
// back to the apply URL so two unknowns never collapse into one.
func dedupeKey(p jobs.Posting) string {
	title := strings.ToLower(strings.TrimSpace(p.Title))
	if title == "" {
		return "url\x00" + p.ApplyURL
	}
	return title + "\x00" + strings.ToLower(strings.TrimSpace(p.Company))
}
