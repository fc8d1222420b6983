package workflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the durable Store over PostgreSQL. Stage results live in a
// jsonb column so the whole instance round-trips in one row.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a Repository over the given connection pool.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, inst *Instance) error {
	results, err := json.Marshal(inst.Results)
	if err != nil {
		return fmt.Errorf("encode results for %s: %w", inst.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflow_instances
			(id, input_locator, current_stage, state, results, failure, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inst.ID, inst.InputLocator, inst.CurrentStage, inst.State,
		results, inst.Failure, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert instance %s: %w", inst.ID, err)
	}
	return nil
}

func (r *Repository) Save(ctx context.Context, inst *Instance) error {
	results, err := json.Marshal(inst.Results)
	if err != nil {
		return fmt.Errorf("encode results for %s: %w", inst.ID, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE workflow_instances
		SET current_stage = $2, state = $3, results = $4, failure = $5, updated_at = $6
		WHERE id = $1`,
		inst.ID, inst.CurrentStage, inst.State, results, inst.Failure, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update instance %s: %w", inst.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update instance %s: %w", inst.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, inst.ID)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Instance, error) {
	var (
		inst    Instance
		results []byte
	)

	row := r.db.QueryRowContext(ctx, `
		SELECT id, input_locator, current_stage, state, results, failure, created_at, updated_at
		FROM workflow_instances
		WHERE id = $1`,
		id,
	)
	err := row.Scan(
		&inst.ID, &inst.InputLocator, &inst.CurrentStage, &inst.State,
		&results, &inst.Failure, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select instance %s: %w", id, err)
	}

	if err := json.Unmarshal(results, &inst.Results); err != nil {
		return nil, fmt.Errorf("decode results for %s: %w", id, err)
	}
	if inst.Results == nil {
		inst.Results = make(map[Stage]json.RawMessage)
	}
	return &inst, nil
}
