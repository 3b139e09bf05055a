package dispositions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/pkg/pagination"
	"github.com/gatehouse-io/gatehouse/pkg/query"
	"github.com/gatehouse-io/gatehouse/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a disposition repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "dispositions"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Disposition], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count dispositions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDisposition)
	if err != nil {
		return nil, fmt.Errorf("query dispositions: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, submissionID uuid.UUID) (*Disposition, error) {
	q, args := query.NewBuilder(projection).BuildSingle("SubmissionID", submissionID)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDisposition)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) ListPending(
	ctx context.Context,
	page pagination.PageRequest,
) (*pagination.PageResult[Disposition], error) {
	pending := OutcomePendingReview
	return r.List(ctx, page, Filters{Outcome: &pending})
}

// Resolve performs the single permitted pending_review-to-terminal transition.
// The update is guarded on the current outcome so a concurrent or repeated
// resolution matches zero rows instead of overwriting a prior terminal state.
func (r *repo) Resolve(
	ctx context.Context,
	submissionID uuid.UUID,
	cmd ResolveCommand,
) (*Disposition, error) {
	outcome, err := outcomeFromDecision(cmd.Decision)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.ReviewerID) == "" {
		return nil, ErrMissingReviewer
	}

	resolveQ := `
		UPDATE dispositions
		SET outcome = $1, resolved_by = $2, resolved_at = NOW()
		WHERE submission_id = $3 AND outcome = 'pending_review'
		RETURNING submission_id, outcome, reason_detail, decided_at, resolved_by, resolved_at`

	d, err := repository.QueryOne(ctx, r.db, resolveQ,
		[]any{outcome, cmd.ReviewerID, submissionID},
		scanDisposition,
	)
	if err == nil {
		r.logger.Info("review resolved",
			"submission_id", submissionID,
			"outcome", d.Outcome,
			"resolved_by", cmd.ReviewerID,
		)
		return &d, nil
	}

	// Zero rows: distinguish an unknown submission from one already resolved.
	if mapped := repository.MapError(err, ErrNotFound, ErrDuplicate); mapped == ErrNotFound {
		existing, findErr := r.Find(ctx, submissionID)
		if findErr != nil {
			return nil, ErrNotFound
		}
		return existing, ErrConflict
	}

	return nil, err
}

func outcomeFromDecision(decision string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(decision)) {
	case "APPROVE":
		return OutcomeApproved, nil
	case "REJECT":
		return OutcomeRejected, nil
	default:
		return "", ErrInvalidDecision
	}
}
