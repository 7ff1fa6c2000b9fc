package filtering

import (
	"context"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

type applyableFilter struct {
	toggle
}

// NewApplyable creates a filter that removes postings the automation cannot
// act on: no apply URL, or one that never parsed.
func NewApplyable() Filter {
	return &applyableFilter{}
}

func (f *applyableFilter) Name() string { return "applyable" }

func (f *applyableFilter) Apply(_ context.Context, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)

	kept := make([]jobs.Posting, 0, len(postings))
	for _, p := range postings {
		if p.ApplyURL == "" || p.ATS == jobs.ATSUnknown {
			continue
		}
		kept = append(kept, p)
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}
