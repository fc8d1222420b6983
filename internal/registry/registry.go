// Package registry resolves which trained analysis model applies to a
// source document. Models are bound per storage container, since each
// company's invoices share a layout.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// ErrModelNotFound indicates no model binding exists for the container.
var ErrModelNotFound = errors.New("analysis model not found")

// System resolves analysis model bindings.
type System interface {
	// ModelFor returns the model id bound to the container, or
	// ErrModelNotFound.
	ModelFor(ctx context.Context, container string) (string, error)
	// Bind creates or replaces the model binding for the container.
	Bind(ctx context.Context, container, modelID string) error
}

type postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a registry over the given connection pool.
func New(db *sql.DB, logger *slog.Logger) System {
	return &postgres{
		db:     db,
		logger: logger.With("system", "registry"),
	}
}

func (p *postgres) ModelFor(ctx context.Context, container string) (string, error) {
	var modelID string
	err := p.db.QueryRowContext(ctx,
		`SELECT model_id FROM analysis_models WHERE container = $1`,
		container,
	).Scan(&modelID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: container %s", ErrModelNotFound, container)
	}
	if err != nil {
		return "", fmt.Errorf("lookup model for %s: %w", container, err)
	}
	return modelID, nil
}

func (p *postgres) Bind(ctx context.Context, container, modelID string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO analysis_models (container, model_id)
		VALUES ($1, $2)
		ON CONFLICT (container) DO UPDATE SET model_id = EXCLUDED.model_id`,
		container, modelID,
	)
	if err != nil {
		return fmt.Errorf("bind model for %s: %w", container, err)
	}

	p.logger.Info("model bound", "container", container, "model", modelID)
	return nil
}
