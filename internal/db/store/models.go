package store

import "github.com/jackc/pgx/v5/pgtype"

type Client struct {
	ClientID    pgtype.UUID        `json:"client_id"`
	DisplayName pgtype.Text        `json:"display_name"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	LastSeenAt  pgtype.Timestamptz `json:"last_seen_at"`
}

type QuizResult struct {
	ResultID           pgtype.UUID        `json:"result_id"`
	ClientID           pgtype.UUID        `json:"client_id"`
	QuizTitle          string             `json:"quiz_title"`
	Score              int32              `json:"score"`
	TotalQuestions     int32              `json:"total_questions"`
	AttemptedQuestions int32              `json:"attempted_questions"`
	SkippedQuestions   int32              `json:"skipped_questions"`
	FinishedAt         pgtype.Timestamptz `json:"finished_at"`
}
