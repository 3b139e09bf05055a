package submissions

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/pkg/pagination"
)

// System defines the public contract for submission domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Submission], error)

	Find(ctx context.Context, id uuid.UUID) (*Submission, error)
	Create(ctx context.Context, cmd CreateCommand) (*Submission, error)
	Status(ctx context.Context, id uuid.UUID) (*StatusResult, error)
}
