package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/precislabs/precis/pkg/repository"
)

const pgUniqueViolation = "23505"

// PostgresStore persists instances and events in PostgreSQL. The singleton
// invariant (one non-terminal instance per correlation key) is enforced by a
// partial unique index so it holds across processes.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a Postgres-backed Store.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger.With("system", "history"),
	}
}

func (s *PostgresStore) CreateInstance(ctx context.Context, inst Instance) error {
	q := `
		INSERT INTO workflow_instances(id, correlation_key, state, input)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, q, inst.ID, inst.CorrelationKey, inst.State, inst.Input)
	if err != nil {
		return mapCreateError(err)
	}
	return nil
}

func mapCreateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if pgErr.ConstraintName == "workflow_instances_pkey" {
			return ErrInstanceExists
		}
		return ErrActiveInstance
	}
	return fmt.Errorf("create instance: %w", err)
}

func (s *PostgresStore) Instance(ctx context.Context, id string) (*Instance, error) {
	q := `
		SELECT id, correlation_key, state, input, created_at, updated_at
		FROM workflow_instances
		WHERE id = $1`

	inst, err := repository.QueryOne(ctx, s.db, q, []any{id}, scanInstance)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrInstanceExists)
	}
	return &inst, nil
}

func (s *PostgresStore) ActiveInstances(ctx context.Context) ([]Instance, error) {
	q := `
		SELECT id, correlation_key, state, input, created_at, updated_at
		FROM workflow_instances
		WHERE state NOT IN ($1, $2)
		ORDER BY created_at`

	instances, err := repository.QueryMany(
		ctx, s.db, q,
		[]any{StateCompleted, StateFailed},
		scanInstance,
	)
	if err != nil {
		return nil, fmt.Errorf("query active instances: %w", err)
	}
	return instances, nil
}

func (s *PostgresStore) SetState(ctx context.Context, id string, state State) error {
	q := `
		UPDATE workflow_instances
		SET state = $2, updated_at = now()
		WHERE id = $1`

	if err := repository.ExecExpectOne(ctx, s.db, q, id, state); err != nil {
		return repository.MapError(err, ErrNotFound, ErrInstanceExists)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, instanceID string, e Event) (int, error) {
	return repository.WithTx(ctx, s.db, func(tx *sql.Tx) (int, error) {
		// Lock the instance row to serialize appends per instance.
		var locked string
		err := tx.QueryRowContext(
			ctx,
			`SELECT id FROM workflow_instances WHERE id = $1 FOR UPDATE`,
			instanceID,
		).Scan(&locked)
		if err != nil {
			return 0, repository.MapError(err, ErrNotFound, ErrInstanceExists)
		}

		var seq int
		err = tx.QueryRowContext(
			ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM workflow_events WHERE instance_id = $1`,
			instanceID,
		).Scan(&seq)
		if err != nil {
			return 0, fmt.Errorf("next sequence: %w", err)
		}

		recordedAt := e.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = time.Now()
		}

		q := `
			INSERT INTO workflow_events(instance_id, seq, type, activity, attempt, input, result, error_kind, error, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

		_, err = tx.ExecContext(
			ctx, q,
			instanceID, seq, e.Type, e.Activity, e.Attempt,
			e.Input, e.Result, e.ErrorKind, e.Error, recordedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("append event: %w", err)
		}

		return seq, nil
	})
}

func (s *PostgresStore) Load(ctx context.Context, instanceID string) ([]Event, error) {
	if _, err := s.Instance(ctx, instanceID); err != nil {
		return nil, err
	}

	q := `
		SELECT seq, type, activity, attempt, input, result, error_kind, error, recorded_at
		FROM workflow_events
		WHERE instance_id = $1
		ORDER BY seq`

	events, err := repository.QueryMany(ctx, s.db, q, []any{instanceID}, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return events, nil
}

func scanInstance(s repository.Scanner) (Instance, error) {
	var inst Instance
	err := s.Scan(
		&inst.ID,
		&inst.CorrelationKey,
		&inst.State,
		&inst.Input,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	return inst, err
}

func scanEvent(s repository.Scanner) (Event, error) {
	var e Event
	err := s.Scan(
		&e.Seq,
		&e.Type,
		&e.Activity,
		&e.Attempt,
		&e.Input,
		&e.Result,
		&e.ErrorKind,
		&e.Error,
		&e.RecordedAt,
	)
	return e, err
}
