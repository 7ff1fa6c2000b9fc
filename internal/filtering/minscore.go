package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

type minScoreFilter struct {
	toggle
	threshold int
	scoreFor  func(jobID string) (int, bool)
}

// NewMinScore creates a filter that removes postings scoring below the
// threshold. Postings the lookup does not know count as zero. A threshold of
// zero or less passes everything through.
func NewMinScore(threshold int, scoreFor func(jobID string) (int, bool)) Filter {
	return &minScoreFilter{threshold: threshold, scoreFor: scoreFor}
}

func (f *minScoreFilter) Name() string { return "min-score" }

func (f *minScoreFilter) Apply(_ context.Context, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)

	if f.threshold <= 0 {
		return postings, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}
	if f.scoreFor == nil {
		return nil, Step{}, fmt.Errorf("score lookup is required")
	}

	kept := make([]jobs.Posting, 0, len(postings))
	for _, p := range postings {
		score, ok := f.scoreFor(p.ID)
		if !ok {
			score = 0
		}
		if score < f.threshold {
			continue
		}
		kept = append(kept, p)
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"threshold": strconv.Itoa(f.threshold)},
	}
}
