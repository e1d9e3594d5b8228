package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Outcome is one rendered catalog page as seen by the visitor.
type Outcome struct {
	SessionID string
	Path      string
	Kind      string
	Status    string
	Error     string
	At        time.Time
}

type OutcomeRepository interface {
	Record(ctx context.Context, outcome Outcome) error
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type outcomeRepository struct {
	db execer
}

func NewOutcomeRepository(db *pgxpool.Pool) OutcomeRepository {
	return &outcomeRepository{
		db: db,
	}
}

func (r *outcomeRepository) Record(ctx context.Context, outcome Outcome) error {
	query := `
	INSERT INTO page_outcomes (session_id, path, kind, status, error, recorded_at)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`
	_, err := r.db.Exec(ctx, query,
		outcome.SessionID,
		outcome.Path,
		outcome.Kind,
		outcome.Status,
		outcome.Error,
		outcome.At,
	)
	if err != nil {
		return fmt.Errorf("failed to record page outcome: %w", err)
	}

	return nil
}

type nopRepository struct{}

// NewNopRepository returns a repository that drops every outcome. It is used
// when no database is configured.
func NewNopRepository() OutcomeRepository {
	return nopRepository{}
}

func (nopRepository) Record(context.Context, Outcome) error {
	return nil
}
