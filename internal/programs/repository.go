package programs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/precislabs/precis/pkg/pagination"
	"github.com/precislabs/precis/pkg/query"
	"github.com/precislabs/precis/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a program repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "programs"),
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
) (*pagination.PageResult[Program], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count programs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanProgram)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Program, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanProgram)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Program, error) {
	insertQ := `
		INSERT INTO programs(name, description, type, status, submitted_by, document_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, description, type, status, submitted_by, document_url,
				  ai_summary, ai_summary_generated_at, created_at, updated_at`

	insertArgs := []any{
		cmd.Name,
		cmd.Description,
		cmd.Type,
		cmd.Status,
		cmd.SubmittedBy,
		cmd.DocumentURL,
	}

	p, err := repository.QueryOne(ctx, r.db, insertQ, insertArgs, scanProgram)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("program created", "id", p.ID, "name", p.Name)
	return &p, nil
}

// UpdateSummary stores a delivered summary. The write sets the summary and
// its generation timestamp together; repeating the same update converges to
// the same stored summary.
func (r *repo) UpdateSummary(ctx context.Context, id int64, cmd UpdateSummaryCommand) error {
	summary := strings.TrimSpace(cmd.Summary)
	if summary == "" || len(summary) > MaxSummaryLength {
		return ErrInvalidSummary
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			`UPDATE programs
			 SET ai_summary = $1, ai_summary_generated_at = NOW(), updated_at = NOW()
			 WHERE id = $2`,
			summary, id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("program summary updated", "id", id, "length", len(summary))
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM programs WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("program deleted", "id", id)
	return nil
}
