package materials

import (
	"context"
	"errors"
	"strings"

	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

// ErrUnavailable is returned by generators that cannot serve right now, for
// example when no API key is present or the backing service rejects the
// call. Callers fall back to the next generator in their chain.
var ErrUnavailable = errors.New("materials generator is unavailable")

// Set holds the files submitted with one application.
type Set struct {
	ResumePath      string
	CoverLetterPath string
}

// Generator produces the material set for a single posting.
type Generator interface {
	Prepare(ctx context.Context, posting jobs.Posting, candidate *jobs.Candidate) (Set, error)
}

type static struct {
	set Set
}

// Static returns a generator that hands out the same pre-written files for
// every posting. An empty cover letter path is allowed; forms without a
// cover letter upload simply skip it.
func Static(resumePath, coverLetterPath string) Generator {
	return &static{set: Set{
		ResumePath:      strings.TrimSpace(resumePath),
		CoverLetterPath: strings.TrimSpace(coverLetterPath),
	}}
}

func (s *static) Prepare(_ context.Context, _ jobs.Posting, _ *jobs.Candidate) (Set, error) {
	if s.set.ResumePath == "" {
		return Set{}, errors.New("resume path is not configured")
	}
	return s.set, nil
}

// Chain tries each generator in order and returns the first result that is
// not ErrUnavailable.
func Chain(generators ...Generator) Generator {
	return chain(generators)
}

type chain []Generator

func (c chain) Prepare(ctx context.Context, posting jobs.Posting, candidate *jobs.Candidate) (Set, error) {
	for _, g := range c {
		if g == nil {
			continue
		}
		set, err := g.Prepare(ctx, posting, candidate)
		if errors.Is(err, ErrUnavailable) {
			continue
		}
		return set, err
	}
	return Set{}, ErrUnavailable
}
