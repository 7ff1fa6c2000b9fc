package autofill

import "time"

// Outcome tags how an automation pass ended. The set is closed; persistence
// and reporting rely on these exact values.
type Outcome string

const (
	OutcomeSubmitted          Outcome = "submitted"
	OutcomePartiallyCompleted Outcome = "partially-completed"
	OutcomeLoginRequired      Outcome = "failed-login-required"
	OutcomeFormNotDetected    Outcome = "failed-form-not-detected"
	OutcomeUnverified         Outcome = "failed-submission-unverified"
)

// Succeeded reports whether the pass ended with a confirmed submission.
func (o Outcome) Succeeded() bool {
	return o == OutcomeSubmitted
}

// Attempt is the immutable record of one automation pass over one posting.
// A pass always produces an Attempt, never an error: interaction failures
// are folded into the outcome tag and detail.
type Attempt struct {
	ID          string
	JobID       string
	Outcome     Outcome
	Steps       int
	Detail      string
	FallbackURL string
	StartedAt   time.Time
	FinishedAt  time.Time
}
