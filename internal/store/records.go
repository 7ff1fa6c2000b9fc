package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/autofill"
	"github.com/RealRedbaron07/JobApplier/internal/jobs"
	"github.com/RealRedbaron07/JobApplier/internal/logger"
	"github.com/RealRedbaron07/JobApplier/internal/match"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// SavePosting inserts a discovered posting and reports whether it was new.
// Postings are keyed by their source-assigned ID, so re-discovering one is a
// no-op.
func (s *Store) SavePosting(ctx context.Context, posting jobs.Posting) (bool, error) {
	discovered := posting.DiscoveredAt
	if discovered.IsZero() {
		discovered = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO postings (id, title, company, location, description, source, ats, apply_url, discovered_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		posting.ID, posting.Title, posting.Company, posting.Location, posting.Description,
		posting.Source, string(posting.ATS), posting.ApplyURL, discovered.Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert posting: %w", err)
	}

	var changes int
	if err := s.db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); err != nil {
		return false, fmt.Errorf("read insert result: %w", err)
	}

	if changes > 0 {
		s.logger.Debug("stored posting",
			zap.String(logger.FieldPosting, posting.Title),
			zap.String(logger.FieldCompany, posting.Company),
		)
	}

	return changes > 0, nil
}

// SaveResult records the score for a posting, replacing any previous one.
func (s *Store) SaveResult(ctx context.Context, result match.Result) error {
	contributions, err := json.Marshal(result.Contributions)
	if err != nil {
		return fmt.Errorf("marshal contributions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO results (job_id, score, contributions, scored_at)
VALUES (?, ?, ?, ?);`,
		result.JobID, result.Score, string(contributions), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	return nil
}

// ResultForJob returns the stored score for one posting.
func (s *Store) ResultForJob(ctx context.Context, jobID string) (match.Result, error) {
	var (
		result        match.Result
		contributions string
	)

	err := s.db.QueryRowContext(ctx, `
SELECT job_id, score, contributions FROM results WHERE job_id = ?;`, jobID).
		Scan(&result.JobID, &result.Score, &contributions)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Result{}, ErrNotFound
	}
	if err != nil {
		return match.Result{}, fmt.Errorf("query result: %w", err)
	}

	if err := json.Unmarshal([]byte(contributions), &result.Contributions); err != nil {
		return match.Result{}, fmt.Errorf("unmarshal contributions: %w", err)
	}

	return result, nil
}

// SaveAttempt records one finished automation pass.
func (s *Store) SaveAttempt(ctx context.Context, attempt autofill.Attempt) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO attempts (id, job_id, outcome, steps, detail, fallback_url, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		attempt.ID, attempt.JobID, string(attempt.Outcome), attempt.Steps, attempt.Detail,
		attempt.FallbackURL, attempt.StartedAt.Format(time.RFC3339), attempt.FinishedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	s.logger.Debug("stored attempt",
		zap.String(logger.FieldAttempt, attempt.ID),
		zap.String("outcome", string(attempt.Outcome)),
	)

	return nil
}

// AttemptsForJob returns the attempts recorded for one posting, oldest first.
func (s *Store) AttemptsForJob(ctx context.Context, jobID string) ([]autofill.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, job_id, outcome, steps, detail, fallback_url, started_at, finished_at
FROM attempts WHERE job_id = ? ORDER BY started_at;`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []autofill.Attempt
	for rows.Next() {
		var (
			attempt  autofill.Attempt
			outcome  string
			started  string
			finished string
		)
		if err := rows.Scan(&attempt.ID, &attempt.JobID, &outcome, &attempt.Steps,
			&attempt.Detail, &attempt.FallbackURL, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}

		attempt.Outcome = autofill.Outcome(outcome)
		if t, err := time.Parse(time.RFC3339, started); err == nil {
			attempt.StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339, finished); err == nil {
			attempt.FinishedAt = t
		}

		attempts = append(attempts, attempt)
	}

	return attempts, rows.Err()
}

// SubmittedJobIDs returns the set of postings with a confirmed submission.
// The run pipeline uses it to skip jobs already applied to.
func (s *Store) SubmittedJobIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT job_id FROM attempts WHERE outcome = ?;`, string(autofill.OutcomeSubmitted))
	if err != nil {
		return nil, fmt.Errorf("query submitted jobs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan job id: %w", err)
		}
		ids[id] = struct{}{}
	}

	return ids, rows.Err()
}
