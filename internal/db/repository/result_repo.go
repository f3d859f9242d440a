package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/quizwhiz/internal/db/store"
	"github.com/gokatarajesh/quizwhiz/internal/results"
	"github.com/gokatarajesh/quizwhiz/internal/session/scoring"
)

const defaultHistoryLimit = 20

type resultStore interface {
	InsertQuizResult(ctx context.Context, arg store.InsertQuizResultParams) error
	ListQuizResultsByClient(ctx context.Context, arg store.ListQuizResultsByClientParams) ([]store.QuizResult, error)
}

// ResultRepository persists finished quiz results for history.
type ResultRepository struct {
	store resultStore
}

func NewResultRepository(store resultStore) *ResultRepository {
	return &ResultRepository{store: store}
}

// Save inserts a record. Saving the same record twice is a no-op.
func (r *ResultRepository) Save(ctx context.Context, rec results.Record) error {
	clientID, err := uuid.Parse(rec.ClientID)
	if err != nil {
		return fmt.Errorf("parse client id: %w", err)
	}
	params := store.InsertQuizResultParams{
		ResultID:           pgUUID(rec.ID),
		ClientID:           pgUUID(clientID),
		QuizTitle:          rec.Result.Title,
		Score:              int32(rec.Result.Score),
		TotalQuestions:     int32(rec.Result.TotalQuestions),
		AttemptedQuestions: int32(rec.Result.Attempted),
		SkippedQuestions:   int32(rec.Result.Skipped),
		FinishedAt:         pgtype.Timestamptz{Time: rec.FinishedAt, Valid: true},
	}
	if err := r.store.InsertQuizResult(ctx, params); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// ListByClient returns the newest results first. A non-positive limit uses the default.
func (r *ResultRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]results.Record, error) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return nil, fmt.Errorf("parse client id: %w", err)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := r.store.ListQuizResultsByClient(ctx, store.ListQuizResultsByClientParams{
		ClientID: pgUUID(id),
		Limit:    int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	out := make([]results.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, results.Record{
			ID:       uuid.UUID(row.ResultID.Bytes),
			ClientID: uuid.UUID(row.ClientID.Bytes).String(),
			Result: scoring.QuizResult{
				Score:          int(row.Score),
				TotalQuestions: int(row.TotalQuestions),
				Title:          row.QuizTitle,
				Attempted:      int(row.AttemptedQuestions),
				Skipped:        int(row.SkippedQuestions),
			},
			FinishedAt: row.FinishedAt.Time,
		})
	}
	return out, nil
}
