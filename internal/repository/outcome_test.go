package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecer struct {
	sql  string
	args []any
	err  error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = arguments
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestRecordOutcome(t *testing.T) {
	db := &fakeExecer{}
	repo := &outcomeRepository{db: db}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := repo.Record(context.Background(), Outcome{
		SessionID: "s-1",
		Path:      "/category/3",
		Kind:      "category",
		Status:    "FATAL_ERROR",
		Error:     "Category not found",
		At:        at,
	})
	require.NoError(t, err)

	assert.Contains(t, db.sql, "INSERT INTO page_outcomes")
	assert.Equal(t, []any{"s-1", "/category/3", "category", "FATAL_ERROR", "Category not found", at}, db.args)
}

func TestRecordOutcomeWrapsError(t *testing.T) {
	cause := errors.New("connection refused")
	repo := &outcomeRepository{db: &fakeExecer{err: cause}}

	err := repo.Record(context.Background(), Outcome{Path: "/category/3"})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to record page outcome")
}

func TestNopRepository(t *testing.T) {
	assert.NoError(t, NewNopRepository().Record(context.Background(), Outcome{}))
}
