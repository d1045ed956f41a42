package programs

import (
	"context"

	"github.com/precislabs/precis/pkg/pagination"
)

// System defines the public contract for program domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Program], error)

	Find(ctx context.Context, id int64) (*Program, error)
	Create(ctx context.Context, cmd CreateCommand) (*Program, error)
	UpdateSummary(ctx context.Context, id int64, cmd UpdateSummaryCommand) error
	Delete(ctx context.Context, id int64) error
}
