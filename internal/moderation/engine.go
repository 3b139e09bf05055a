package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gatehouse-io/gatehouse/internal/dispositions"
	"github.com/gatehouse-io/gatehouse/pkg/lifecycle"
	"github.com/gatehouse-io/gatehouse/pkg/notify"
	"github.com/gatehouse-io/gatehouse/pkg/repository"
)

// Source evaluates one modality of a submission and always yields a verdict:
// classifier failures surface as ambiguous verdicts carrying the error, never
// as a silently missing modality.
type Source interface {
	Modality() Modality
	Evaluate(ctx context.Context, c Content) Verdict
}

// System is the public contract of the moderation engine.
type System interface {
	// Begin creates the join barrier for a submission. Passing the caller's
	// transaction executor makes the barrier atomic with the submission
	// insert; fan-out is deferred to Dispatch so classifiers never race a
	// join row their transactions cannot yet see.
	Begin(ctx context.Context, exec repository.Executor, c Content) error
	// Dispatch fans out the submission's expected classifiers
	// asynchronously. Call after the transaction passed to Begin commits.
	Dispatch(c Content)
	// Record absorbs one verdict delivery. Safe under duplicate, re-ordered,
	// and late delivery; the completing arrival triggers aggregation.
	Record(ctx context.Context, v Verdict) error
	// Sweep times out joins past their deadline and aggregates each with
	// whatever verdicts arrived. Returns the number of joins expired.
	Sweep(ctx context.Context, now time.Time) (int, error)
	// Start registers the timeout sweeper with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// Options bounds the engine's waits.
type Options struct {
	// JoinTimeout is how long a join may wait for its expected modalities
	// before the sweeper forces a decision with whatever arrived.
	JoinTimeout time.Duration
	// SweepInterval is how often the sweeper scans for expired joins.
	SweepInterval time.Duration
}

type engine struct {
	store    Store
	sources  map[Modality]Source
	notifier notify.System
	logger   *slog.Logger
	opts     Options
	base     context.Context
}

// New creates the moderation engine. Sources are registered by modality;
// a submission expecting a modality with no registered source is resolved
// by the timeout path.
func New(
	store Store,
	sources []Source,
	notifier notify.System,
	logger *slog.Logger,
	opts Options,
) System {
	byModality := make(map[Modality]Source, len(sources))
	for _, src := range sources {
		byModality[src.Modality()] = src
	}

	return &engine{
		store:    store,
		sources:  byModality,
		notifier: notifier,
		logger:   logger.With("system", "moderation"),
		opts:     opts,
		base:     context.Background(),
	}
}

func (e *engine) Start(lc *lifecycle.Coordinator) error {
	e.base = lc.Context()
	e.logger.Info(
		"starting moderation engine",
		"join_timeout", e.opts.JoinTimeout,
		"sweep_interval", e.opts.SweepInterval,
	)

	go e.sweepLoop(lc.Context())
	return nil
}

func (e *engine) Begin(ctx context.Context, exec repository.Executor, c Content) error {
	expected := c.Modalities()
	if len(expected) == 0 {
		return ErrNoModalities
	}

	deadline := time.Now().Add(e.opts.JoinTimeout)
	if err := e.store.CreateJoin(ctx, exec, c, deadline); err != nil {
		return err
	}

	e.logger.Info(
		"submission accepted for moderation",
		"submission_id", c.SubmissionID,
		"expected", expected,
		"deadline", deadline,
	)
	return nil
}

func (e *engine) Dispatch(c Content) {
	go e.dispatch(c, c.Modalities())
}

// dispatch fans out one classifier per expected modality. Each runs
// independently; results re-enter the engine through Record, so dispatch
// itself holds no join state.
func (e *engine) dispatch(c Content, expected []Modality) {
	ctx, cancel := context.WithTimeout(e.base, e.opts.JoinTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	for _, m := range expected {
		src, ok := e.sources[m]
		if !ok {
			e.logger.Warn("no classifier registered for modality",
				"submission_id", c.SubmissionID,
				"modality", m,
			)
			continue
		}

		g.Go(func() error {
			verdict := src.Evaluate(gctx, c)
			if err := e.Record(gctx, verdict); err != nil {
				return fmt.Errorf("record %s verdict: %w", verdict.Modality, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.Error("fan-out incomplete",
			"submission_id", c.SubmissionID,
			"error", err,
		)
	}
}

func (e *engine) Record(ctx context.Context, v Verdict) error {
	if err := validateVerdict(v); err != nil {
		return err
	}

	arrival, err := e.store.RecordVerdict(ctx, v)
	if err != nil {
		return err
	}

	e.logger.Info("verdict recorded",
		"submission_id", v.SubmissionID,
		"modality", v.Modality,
		"decision", v.Decision,
		"join_status", arrival.Status,
	)

	if arrival.Completed {
		return e.finalize(ctx, v.SubmissionID, false)
	}
	return nil
}

func (e *engine) Sweep(ctx context.Context, now time.Time) (int, error) {
	ids, err := e.store.ExpireJoins(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := e.finalize(ctx, id, true); err != nil {
			e.logger.Error("timed-out aggregation failed",
				"submission_id", id,
				"error", err,
			)
		}
	}

	return len(ids), nil
}

// finalize runs the combination policy over the arrived verdicts and commits
// the disposition. The commit is first-writer-wins: when a disposition already
// exists the call is a no-op and no notification is re-emitted.
func (e *engine) finalize(ctx context.Context, submissionID uuid.UUID, timedOut bool) error {
	join, err := e.store.Join(ctx, submissionID)
	if err != nil {
		return err
	}

	arrived, err := e.store.Arrived(ctx, submissionID)
	if err != nil {
		return err
	}

	outcome, reason := decide(join.Expected, arrived, timedOut)

	created, err := e.store.CommitDisposition(ctx, Commit{
		SubmissionID: submissionID,
		Outcome:      outcome,
		Reason:       reason,
	})
	if err != nil {
		return err
	}

	if !created {
		e.logger.Info("disposition already committed",
			"submission_id", submissionID,
		)
		return nil
	}

	e.logger.Info("disposition committed",
		"submission_id", submissionID,
		"outcome", outcome,
		"timed_out", timedOut,
	)

	if outcome == dispositions.OutcomePendingReview {
		e.notifyReview(ctx, submissionID, reason)
	}
	return nil
}

// notifyReview emits the human-review notification. Delivery is best-effort
// and at-least-once tolerant; the pending-review queue remains the durable
// source of work, so a failed post is logged rather than propagated.
func (e *engine) notifyReview(ctx context.Context, submissionID uuid.UUID, reason Reason) {
	decisions := make(map[string]string, len(reason.PerModality))
	for m, d := range reason.PerModality {
		decisions[string(m)] = string(d)
	}
	for _, m := range reason.Missing {
		decisions[string(m)] = "missing"
	}

	content, err := e.store.Content(ctx, submissionID)
	if err != nil {
		e.logger.Error("review notification skipped",
			"submission_id", submissionID,
			"error", err,
		)
		return
	}

	req := notify.ReviewRequest{
		SubmissionID: submissionID.String(),
		Preview:      preview(content),
		Decisions:    decisions,
	}

	if err := e.notifier.ReviewRequested(ctx, req); err != nil {
		e.logger.Error("review notification failed",
			"submission_id", submissionID,
			"error", err,
		)
	}
}

func (e *engine) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(e.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("moderation sweeper stopped")
			return
		case now := <-ticker.C:
			expired, err := e.Sweep(ctx, now)
			if err != nil {
				e.logger.Error("sweep failed", "error", err)
				continue
			}
			if expired > 0 {
				e.logger.Info("joins timed out", "count", expired)
			}
		}
	}
}

func validateVerdict(v Verdict) error {
	if v.SubmissionID == uuid.Nil {
		return fmt.Errorf("%w: missing submission_id", ErrInvalidVerdict)
	}

	switch v.Modality {
	case ModalityText, ModalityImage:
	default:
		return fmt.Errorf("%w: modality %q", ErrInvalidVerdict, v.Modality)
	}

	switch v.Decision {
	case DecisionApprove, DecisionReject, DecisionAmbiguous:
	default:
		return fmt.Errorf("%w: decision %q", ErrInvalidVerdict, v.Decision)
	}

	return nil
}
