package submissions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/internal/moderation"
	"github.com/gatehouse-io/gatehouse/pkg/pagination"
	"github.com/gatehouse-io/gatehouse/pkg/query"
	"github.com/gatehouse-io/gatehouse/pkg/repository"
	"github.com/gatehouse-io/gatehouse/pkg/storage"
)

type repo struct {
	db         *sql.DB
	engine     moderation.System
	media      storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a submission repository implementing the System interface.
func New(
	db *sql.DB,
	engine moderation.System,
	media storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		engine:     engine,
		media:      media,
		logger:     logger.With("system", "submissions"),
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
) (*pagination.PageResult[Submission], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Author", "Text")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	subs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSubmission)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}

	result := pagination.NewPageResult(subs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Submission, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanSubmission)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

// Create registers a submission and starts its moderation fan-out. The row
// insert and join creation commit in a single transaction before the
// classifiers are dispatched, so a crash leaves either nothing or a waiting
// join for the sweeper to resolve, never a join-less pending submission.
func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Submission, error) {
	cmd.Text = strings.TrimSpace(cmd.Text)
	if cmd.Text == "" && cmd.ImageKey == "" {
		return nil, ErrEmptyContent
	}

	if cmd.Author == "" {
		return nil, fmt.Errorf("%w: author is required", ErrInvalid)
	}

	if cmd.ImageKey != "" {
		ok, err := r.media.Exists(ctx, cmd.ImageKey)
		if err != nil {
			return nil, fmt.Errorf("verify media: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: image_key %q", ErrUnknownMedia, cmd.ImageKey)
		}
	}

	q := `
		INSERT INTO submissions(id, author, text, image_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, author, text, image_key, created_at, updated_at`

	insertArgs := []any{
		uuid.New(),
		cmd.Author,
		nullable(cmd.Text),
		nullable(cmd.ImageKey),
	}

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Submission, error) {
		s, err := repository.QueryOne(ctx, tx, q, insertArgs, scanSubmission)
		if err != nil {
			return s, err
		}

		err = r.engine.Begin(ctx, tx, moderation.Content{
			SubmissionID: s.ID,
			Text:         s.Text,
			ImageKey:     s.ImageKey,
		})
		if err != nil {
			return s, fmt.Errorf("begin moderation: %w", err)
		}
		return s, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.engine.Dispatch(moderation.Content{
		SubmissionID: s.ID,
		Text:         s.Text,
		ImageKey:     s.ImageKey,
	})

	r.logger.Info("submission created", "id", s.ID, "author", s.Author)
	return &s, nil
}

const statusQ = `
	SELECT s.id, d.outcome, d.decided_at
	FROM submissions s
	LEFT JOIN dispositions d ON d.submission_id = s.id
	WHERE s.id = $1`

func (r *repo) Status(ctx context.Context, id uuid.UUID) (*StatusResult, error) {
	res, err := repository.QueryOne(ctx, r.db, statusQ, []any{id}, scanStatus)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &res, nil
}

func scanStatus(sc repository.Scanner) (StatusResult, error) {
	var res StatusResult
	var outcome sql.NullString
	var decidedAt sql.NullTime

	if err := sc.Scan(&res.SubmissionID, &outcome, &decidedAt); err != nil {
		return res, err
	}

	switch outcome.String {
	case "approved":
		res.Status = StatusApproved
	case "rejected":
		res.Status = StatusRejected
	default:
		res.Status = StatusPending
	}

	if decidedAt.Valid {
		t := decidedAt.Time.UTC()
		res.DecidedAt = &t
	}

	return res, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
