package moderation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/internal/dispositions"
	"github.com/gatehouse-io/gatehouse/pkg/repository"
)

// Arrival reports the join barrier's state after a verdict was recorded.
type Arrival struct {
	// Status is the join status after the arrival was absorbed.
	Status JoinStatus
	// Completed is true only for the single arrival that won the
	// waiting-to-ready transition. Replays and late arrivals are false.
	Completed bool
}

// Commit is a conditional disposition write keyed by submission.
type Commit struct {
	SubmissionID uuid.UUID
	Outcome      dispositions.Outcome
	Reason       Reason
}

// Store is the engine's durable coordination surface. JoinState and
// Disposition rows are the only shared mutable state; every transition is an
// atomic conditional write so concurrent arrivals, timeouts, and replays
// cannot double-decide a submission.
type Store interface {
	// CreateJoin records the expected modality set for a submission. The
	// caller's transaction executor makes join creation atomic with the
	// submission insert; a nil executor falls back to the store's pool.
	// Creating an existing join is a no-op.
	CreateJoin(ctx context.Context, exec repository.Executor, c Content, deadline time.Time) error
	// RecordVerdict upserts the verdict for its modality (last write wins on
	// replay) and atomically attempts the waiting-to-ready transition.
	// Returns ErrUnknownSubmission when no submission backs the verdict.
	RecordVerdict(ctx context.Context, v Verdict) (*Arrival, error)
	// ExpireJoins transitions every join past its deadline from waiting to
	// timed_out and returns the affected submission ids.
	ExpireJoins(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	// Join returns the join state for a submission.
	Join(ctx context.Context, submissionID uuid.UUID) (*JoinState, error)
	// Arrived returns the verdicts recorded so far for a submission.
	Arrived(ctx context.Context, submissionID uuid.UUID) ([]Verdict, error)
	// Content returns the classifier-facing view of a submission.
	Content(ctx context.Context, submissionID uuid.UUID) (*Content, error)
	// CommitDisposition inserts the disposition if none exists. Returns false
	// when a disposition was already committed for the submission.
	CommitDisposition(ctx context.Context, c Commit) (bool, error)
}

type sqlStore struct {
	db          *sql.DB
	joinTimeout time.Duration
}

// NewStore creates the SQL-backed engine store.
func NewStore(db *sql.DB, joinTimeout time.Duration) Store {
	return &sqlStore{db: db, joinTimeout: joinTimeout}
}

const createJoinQ = `
	INSERT INTO join_states (submission_id, expect_text, expect_image, status, deadline)
	VALUES ($1, $2, $3, 'waiting', $4)
	ON CONFLICT (submission_id) DO NOTHING`

// ensureJoinQ lazily creates a join from the submission's recorded content,
// so a verdict that outruns ingestion wiring still finds its barrier. The
// expected set derives from the stored row, never from arrivals.
const ensureJoinQ = `
	INSERT INTO join_states (submission_id, expect_text, expect_image, status, deadline)
	SELECT s.id,
	       s.text IS NOT NULL AND s.text <> '',
	       s.image_key IS NOT NULL AND s.image_key <> '',
	       'waiting', $2
	FROM submissions s
	WHERE s.id = $1
	ON CONFLICT (submission_id) DO NOTHING`

const upsertVerdictQ = `
	INSERT INTO verdicts (submission_id, modality, decision, score_detail, produced_at, nonce)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (submission_id, modality) DO UPDATE SET
		decision = EXCLUDED.decision,
		score_detail = EXCLUDED.score_detail,
		produced_at = EXCLUDED.produced_at,
		nonce = EXCLUDED.nonce`

// lockJoinQ serializes concurrent arrivals on the join row. The second
// arrival blocks here until the first commits, so its completeness check in
// readyQ sees the committed verdict instead of a snapshot that misses it.
const lockJoinQ = `
	SELECT status FROM join_states WHERE submission_id = $1 FOR UPDATE`

// readyQ completes the join barrier. The completeness predicate runs inside
// the conditional UPDATE, and callers hold the join row lock, so the arrival
// that covers the expected set and the status transition are a single atomic
// step: exactly one caller observes rows-affected = 1, no matter how arrivals
// race or replay.
const readyQ = `
	UPDATE join_states js
	SET status = 'ready', updated_at = NOW()
	WHERE js.submission_id = $1
	  AND js.status = 'waiting'
	  AND (NOT js.expect_text OR EXISTS (
	      SELECT 1 FROM verdicts v
	      WHERE v.submission_id = js.submission_id AND v.modality = 'text'))
	  AND (NOT js.expect_image OR EXISTS (
	      SELECT 1 FROM verdicts v
	      WHERE v.submission_id = js.submission_id AND v.modality = 'image'))`

const expireQ = `
	UPDATE join_states
	SET status = 'timed_out', updated_at = NOW()
	WHERE status = 'waiting' AND deadline <= $1
	RETURNING submission_id`

const joinQ = `
	SELECT submission_id, expect_text, expect_image, status, deadline, created_at, updated_at
	FROM join_states
	WHERE submission_id = $1`

const arrivedQ = `
	SELECT submission_id, modality, decision, score_detail, produced_at, nonce
	FROM verdicts
	WHERE submission_id = $1
	ORDER BY modality`

const contentQ = `
	SELECT id, COALESCE(text, ''), COALESCE(image_key, '')
	FROM submissions
	WHERE id = $1`

const commitQ = `
	INSERT INTO dispositions (submission_id, outcome, reason_detail, decided_at, resolved_by, resolved_at)
	VALUES ($1, $2, $3, NOW(), $4, CASE WHEN $4 IS NULL THEN NULL ELSE NOW() END)
	ON CONFLICT (submission_id) DO NOTHING`

func (s *sqlStore) CreateJoin(ctx context.Context, exec repository.Executor, c Content, deadline time.Time) error {
	expected := c.Modalities()
	if len(expected) == 0 {
		return ErrNoModalities
	}

	if exec == nil {
		exec = s.db
	}

	_, err := exec.ExecContext(ctx, createJoinQ,
		c.SubmissionID,
		c.Text != "",
		c.ImageKey != "",
		deadline,
	)
	if err != nil {
		return fmt.Errorf("create join state: %w", err)
	}
	return nil
}

func (s *sqlStore) RecordVerdict(ctx context.Context, v Verdict) (*Arrival, error) {
	detail, err := json.Marshal(v.ScoreDetail)
	if err != nil {
		return nil, fmt.Errorf("marshal score detail: %w", err)
	}

	return repository.WithTx(ctx, s.db, func(tx *sql.Tx) (*Arrival, error) {
		if _, err := tx.ExecContext(ctx, ensureJoinQ,
			v.SubmissionID, time.Now().Add(s.joinTimeout),
		); err != nil {
			return nil, fmt.Errorf("ensure join state: %w", err)
		}

		// No join row after the lazy create means no submission backs the
		// verdict; locking it also serializes concurrent arrivals so the
		// completeness check below cannot miss a racing modality.
		var status JoinStatus
		row := tx.QueryRowContext(ctx, lockJoinQ, v.SubmissionID)
		if err := row.Scan(&status); err != nil {
			return nil, repository.MapError(err, ErrUnknownSubmission, ErrInvalidVerdict)
		}

		if _, err := tx.ExecContext(ctx, upsertVerdictQ,
			v.SubmissionID, v.Modality, v.Decision, detail, v.ProducedAt, v.Nonce,
		); err != nil {
			return nil, fmt.Errorf("upsert verdict: %w", err)
		}

		result, err := tx.ExecContext(ctx, readyQ, v.SubmissionID)
		if err != nil {
			return nil, fmt.Errorf("complete join: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 1 {
			status = JoinReady
		}

		return &Arrival{Status: status, Completed: affected == 1}, nil
	})
}

func (s *sqlStore) ExpireJoins(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, expireQ, now)
	if err != nil {
		return nil, fmt.Errorf("expire joins: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *sqlStore) Join(ctx context.Context, submissionID uuid.UUID) (*JoinState, error) {
	js, err := repository.QueryOne(ctx, s.db, joinQ, []any{submissionID}, scanJoinState)
	if err != nil {
		return nil, repository.MapError(err, ErrUnknownSubmission, ErrInvalidVerdict)
	}
	return &js, nil
}

func (s *sqlStore) Arrived(ctx context.Context, submissionID uuid.UUID) ([]Verdict, error) {
	return repository.QueryMany(ctx, s.db, arrivedQ, []any{submissionID}, scanVerdict)
}

func (s *sqlStore) Content(ctx context.Context, submissionID uuid.UUID) (*Content, error) {
	c, err := repository.QueryOne(ctx, s.db, contentQ, []any{submissionID},
		func(sc repository.Scanner) (Content, error) {
			var c Content
			err := sc.Scan(&c.SubmissionID, &c.Text, &c.ImageKey)
			return c, err
		})
	if err != nil {
		return nil, repository.MapError(err, ErrUnknownSubmission, ErrInvalidVerdict)
	}
	return &c, nil
}

func (s *sqlStore) CommitDisposition(ctx context.Context, c Commit) (bool, error) {
	reason, err := json.Marshal(c.Reason)
	if err != nil {
		return false, fmt.Errorf("marshal reason detail: %w", err)
	}

	var resolvedBy *string
	if c.Outcome != dispositions.OutcomePendingReview {
		system := dispositions.ResolvedBySystem
		resolvedBy = &system
	}

	result, err := s.db.ExecContext(ctx, commitQ, c.SubmissionID, c.Outcome, reason, resolvedBy)
	if err != nil {
		return false, fmt.Errorf("commit disposition: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func scanJoinState(s repository.Scanner) (JoinState, error) {
	var js JoinState
	var expectText, expectImage bool

	err := s.Scan(
		&js.SubmissionID,
		&expectText,
		&expectImage,
		&js.Status,
		&js.Deadline,
		&js.CreatedAt,
		&js.UpdatedAt,
	)
	if err != nil {
		return js, err
	}

	if expectText {
		js.Expected = append(js.Expected, ModalityText)
	}
	if expectImage {
		js.Expected = append(js.Expected, ModalityImage)
	}
	return js, nil
}

func scanVerdict(s repository.Scanner) (Verdict, error) {
	var v Verdict
	var detailRaw []byte

	err := s.Scan(
		&v.SubmissionID,
		&v.Modality,
		&v.Decision,
		&detailRaw,
		&v.ProducedAt,
		&v.Nonce,
	)
	if err != nil {
		return v, err
	}

	if len(detailRaw) > 0 {
		if err := json.Unmarshal(detailRaw, &v.ScoreDetail); err != nil {
			return v, fmt.Errorf("unmarshal score_detail: %w", err)
		}
	}
	return v, nil
}
