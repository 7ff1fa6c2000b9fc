package filtering

import (
	"context"
	"fmt"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

// History supplies the IDs of jobs that already have a submitted application.
type History interface {
	SubmittedJobIDs(ctx context.Context) (map[string]struct{}, error)
}

type appliedHistoryFilter struct {
	toggle
	history History
}

// NewAppliedHistory creates a filter that removes postings already applied to.
func NewAppliedHistory(history History) Filter {
	return &appliedHistoryFilter{history: history}
}

func (f *appliedHistoryFilter) Name() string { return "applied-history" }

func (f *appliedHistoryFilter) Apply(ctx context.Context, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)

	if f.history == nil {
		return nil, Step{}, fmt.Errorf("application history is required")
	}

	applied, err := f.history.SubmittedJobIDs(ctx)
	if err != nil {
		return nil, Step{}, fmt.Errorf("load application history: %w", err)
	}

	kept := make([]jobs.Posting, 0, len(postings))
	for _, p := range postings {
		if _, ok := applied[p.ID]; ok {
			continue
		}
		kept = append(kept, p)
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

func (f *appliedHistoryFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
