package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createClient = `
INSERT INTO clients (client_id, display_name)
VALUES ($1, $2)
RETURNING client_id, display_name, created_at, last_seen_at
`

type CreateClientParams struct {
	ClientID    pgtype.UUID `json:"client_id"`
	DisplayName pgtype.Text `json:"display_name"`
}

func (q *Queries) CreateClient(ctx context.Context, arg CreateClientParams) (Client, error) {
	row := q.db.QueryRow(ctx, createClient, arg.ClientID, arg.DisplayName)
	var i Client
	err := row.Scan(&i.ClientID, &i.DisplayName, &i.CreatedAt, &i.LastSeenAt)
	return i, err
}

const touchClient = `
UPDATE clients SET last_seen_at = now() WHERE client_id = $1
`

func (q *Queries) TouchClient(ctx context.Context, clientID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, touchClient, clientID)
	return err
}

const insertQuizResult = `
INSERT INTO quiz_results (
    result_id, client_id, quiz_title, score, total_questions,
    attempted_questions, skipped_questions, finished_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (result_id) DO NOTHING
`

type InsertQuizResultParams struct {
	ResultID           pgtype.UUID        `json:"result_id"`
	ClientID           pgtype.UUID        `json:"client_id"`
	QuizTitle          string             `json:"quiz_title"`
	Score              int32              `json:"score"`
	TotalQuestions     int32              `json:"total_questions"`
	AttemptedQuestions int32              `json:"attempted_questions"`
	SkippedQuestions   int32              `json:"skipped_questions"`
	FinishedAt         pgtype.Timestamptz `json:"finished_at"`
}

func (q *Queries) InsertQuizResult(ctx context.Context, arg InsertQuizResultParams) error {
	_, err := q.db.Exec(ctx, insertQuizResult,
		arg.ResultID,
		arg.ClientID,
		arg.QuizTitle,
		arg.Score,
		arg.TotalQuestions,
		arg.AttemptedQuestions,
		arg.SkippedQuestions,
		arg.FinishedAt,
	)
	return err
}

const listQuizResultsByClient = `
SELECT result_id, client_id, quiz_title, score, total_questions,
       attempted_questions, skipped_questions, finished_at
FROM quiz_results
WHERE client_id = $1
ORDER BY finished_at DESC
LIMIT $2
`

type ListQuizResultsByClientParams struct {
	ClientID pgtype.UUID `json:"client_id"`
	Limit    int32       `json:"limit"`
}

func (q *Queries) ListQuizResultsByClient(ctx context.Context, arg ListQuizResultsByClientParams) ([]QuizResult, error) {
	rows, err := q.db.Query(ctx, listQuizResultsByClient, arg.ClientID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QuizResult
	for rows.Next() {
		var i QuizResult
		if err := rows.Scan(
			&i.ResultID,
			&i.ClientID,
			&i.QuizTitle,
			&i.Score,
			&i.TotalQuestions,
			&i.AttemptedQuestions,
			&i.SkippedQuestions,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
