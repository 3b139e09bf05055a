package dispositions

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/pkg/pagination"
)

// System defines the public contract for disposition domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Disposition], error)

	Find(ctx context.Context, submissionID uuid.UUID) (*Disposition, error)
	ListPending(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Disposition], error)
	Resolve(ctx context.Context, submissionID uuid.UUID, cmd ResolveCommand) (*Disposition, error)
}
