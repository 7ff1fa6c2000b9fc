package autofill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/browser"
	"github.com/RealRedbaron07/JobApplier/internal/jobs"
	"github.com/RealRedbaron07/JobApplier/internal/logger"
	"github.com/RealRedbaron07/JobApplier/internal/materials"
)

// DefaultMaxSteps bounds how many form pages one pass may traverse before
// the walk is declared lost.
const DefaultMaxSteps = 5

// Config tunes the form walk.
type Config struct {
	// MaxSteps bounds the number of form pages per pass.
	MaxSteps int `mapstructure:"max-steps"`
	// SuccessSignatures are phrases that confirm a submission went through.
	SuccessSignatures []string `mapstructure:"success-signatures"`
	// ErrorBanners are phrases that mark a rejected submission.
	ErrorBanners []string `mapstructure:"error-banners"`
}

func DefaultSuccessSignatures() []string {
	return []string{
		"thank you",
		"application submitted",
		"submitted successfully",
		"application received",
		"we have received",
		"confirmation",
	}
}

func DefaultErrorBanners() []string {
	return []string{
		"there was an error",
		"fix the errors",
		"please correct",
		"field is required",
		"required field",
		"failed to submit",
	}
}

func (c Config) withDefaults() Config {
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if len(c.SuccessSignatures) == 0 {
		c.SuccessSignatures = DefaultSuccessSignatures()
	}
	if len(c.ErrorBanners) == 0 {
		c.ErrorBanners = DefaultErrorBanners()
	}
	return c
}

var (
	applyWords  = []string{"apply"}
	nextWords   = []string{"next", "continue", "proceed"}
	submitWords = []string{"submit", "apply", "send", "finish"}
)

type state int

const (
	stateStart state = iota
	stateDiscover
	stateFill
	stateAdvance
	stateSubmit
	stateVerify
	stateDone
)

// Machine drives one application form at a time through the fixed
// discover/fill/advance/submit/verify walk.
type Machine struct {
	session *browser.Session
	cfg     Config
	logger  *zap.Logger
}

func New(session *browser.Session, cfg Config, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{session: session, cfg: cfg.withDefaults(), logger: log}
}

// pass is the mutable state of one Run. It lives for a single posting and
// is discarded afterwards.
type pass struct {
	log       *zap.Logger
	candidate *jobs.Candidate
	set       materials.Set
	applyURL  string

	page     *browser.Page
	bindings []binding
	formURL  string

	steps     int
	filledNow int
	filledAll int

	outcome Outcome
	detail  string
}

func (p *pass) end(outcome Outcome, detail string) state {
	p.outcome = outcome
	p.detail = detail
	return stateDone
}

func (p *pass) cancelled(err error) state {
	if p.filledAll > 0 {
		return p.end(OutcomePartiallyCompleted, fmt.Sprintf("cancelled mid-form: %v", err))
	}
	return p.end(OutcomeFormNotDetected, fmt.Sprintf("cancelled before any field was filled: %v", err))
}

// interactionFailed folds a browser layer error into a terminal outcome.
// Failures around the submit click leave the remote state unknown and map
// to OutcomeUnverified; anything earlier never reached a submission.
func (p *pass) interactionFailed(err error, submitting bool) state {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return p.cancelled(err)
	}
	if submitting {
		return p.end(OutcomeUnverified, fmt.Sprintf("submit failed: %v", err))
	}
	if p.filledAll > 0 {
		return p.end(OutcomePartiallyCompleted, fmt.Sprintf("interaction failed mid-form: %v", err))
	}
	return p.end(OutcomeFormNotDetected, err.Error())
}

// Run walks the application form for one posting and returns the Attempt
// record. It never returns a Go error: interaction failures are folded
// into the outcome tag so the caller can persist every pass uniformly.
func (m *Machine) Run(ctx context.Context, posting jobs.Posting, candidate *jobs.Candidate, set materials.Set) Attempt {
	attempt := Attempt{
		ID:          uuid.NewString(),
		JobID:       posting.ID,
		FallbackURL: posting.ApplyURL,
		StartedAt:   time.Now(),
	}

	log := logger.WithPostingFields(m.logger, posting.Title, posting.Company).
		With(zap.String(logger.FieldAttempt, attempt.ID))

	p := &pass{
		log:       log,
		candidate: candidate,
		set:       set,
		applyURL:  posting.ApplyURL,
	}

	if candidate == nil {
		p.end(OutcomeFormNotDetected, "candidate profile is required")
	} else {
		for st := stateStart; st != stateDone; {
			if err := ctx.Err(); err != nil {
				st = p.cancelled(err)
				continue
			}

			switch st {
			case stateStart:
				st = m.start(ctx, p)
			case stateDiscover:
				st = m.discover(p)
			case stateFill:
				st = m.fill(ctx, p)
			case stateAdvance:
				st = m.advance(ctx, p)
			case stateSubmit:
				st = m.submitForm(ctx, p)
			case stateVerify:
				st = m.verify(p)
			}
		}
	}

	attempt.Outcome = p.outcome
	attempt.Steps = p.steps
	attempt.Detail = p.detail
	attempt.FinishedAt = time.Now()

	log.Info("attempt finished",
		zap.String("outcome", string(attempt.Outcome)),
		zap.Int("steps", attempt.Steps),
		zap.String("detail", attempt.Detail),
	)

	return attempt
}

func (m *Machine) start(ctx context.Context, p *pass) state {
	var page *browser.Page
	err := m.session.Do(ctx, func() error {
		var err error
		page, err = m.session.Open(ctx, p.applyURL)
		return err
	})
	if err != nil {
		return p.interactionFailed(fmt.Errorf("open application page: %w", err), false)
	}
	p.page = page

	// Postings often link to a description page that hides the form behind
	// an apply control. Follow it once.
	if !hasFillableFields(page) {
		if apply, found := findButton(page, applyWords); found {
			p.log.Debug("following apply control", zap.String("url", page.URL()))
			next, err := m.session.Click(ctx, page, apply)
			switch {
			case err == nil:
				p.page = next
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return p.cancelled(err)
			default:
				p.log.Debug("apply control did not lead anywhere", zap.Error(err))
			}
		}
	}

	return stateDiscover
}

func (m *Machine) discover(p *pass) state {
	p.steps++

	fields := p.page.Fields()
	p.bindings = p.bindings[:0]

	var hasPassword, application bool
	for _, el := range fields {
		if el.Type == "password" {
			hasPassword = true
			continue
		}

		r := classify(el)
		if r == roleUnknown {
			continue
		}
		if r.strong() {
			application = true
		}

		value, file, ok := valueFor(r, p.candidate, p.set)
		if !ok {
			continue
		}
		p.bindings = append(p.bindings, binding{element: el, role: r, value: value, file: file})
	}

	if hasPassword && !application {
		return p.end(OutcomeLoginRequired, "login wall: password field without application fields")
	}

	p.log.Debug("discovered fields",
		zap.Int("step", p.steps),
		zap.Int("fields", len(fields)),
		zap.Int("bound", len(p.bindings)),
	)

	return stateFill
}

func (m *Machine) fill(ctx context.Context, p *pass) state {
	p.filledNow = 0

	for _, b := range p.bindings {
		if err := ctx.Err(); err != nil {
			return p.cancelled(err)
		}

		var err error
		if b.file != "" {
			err = m.session.Upload(b.element, b.file)
		} else {
			err = m.session.Type(ctx, b.element, b.value)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return p.cancelled(err)
			}
			p.log.Warn("skipping field", zap.String("role", b.role.String()), zap.Error(err))
			continue
		}

		p.filledNow++
		p.filledAll++
		p.log.Debug("filled field", zap.String("role", b.role.String()))
	}

	return stateAdvance
}

func (m *Machine) advance(ctx context.Context, p *pass) state {
	next, found := findButton(p.page, nextWords)
	if !found || p.filledNow == 0 {
		return stateSubmit
	}

	if p.steps >= m.cfg.MaxSteps {
		return p.end(OutcomeFormNotDetected, fmt.Sprintf("form did not converge within %d steps", m.cfg.MaxSteps))
	}

	p.log.Debug("advancing to next step", zap.Int("step", p.steps))

	page, err := m.session.Click(ctx, p.page, next)
	if err != nil {
		return p.interactionFailed(fmt.Errorf("advance to next step: %w", err), false)
	}
	p.page = page

	return stateDiscover
}

func (m *Machine) submitForm(ctx context.Context, p *pass) state {
	btn, found := findButton(p.page, submitWords)
	if !found {
		return p.end(OutcomeFormNotDetected, "no submit control found")
	}

	p.formURL = p.page.URL()
	p.log.Debug("submitting application", zap.Int("step", p.steps))

	page, err := m.session.Click(ctx, p.page, btn)
	if err != nil {
		return p.interactionFailed(fmt.Errorf("submit application: %w", err), true)
	}
	p.page = page

	return stateVerify
}
