package results

import (
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/quizwhiz/internal/session/scoring"
)

// Record is a finished result as stored for a client.
type Record struct {
	ID         uuid.UUID          `json:"id"`
	ClientID   string             `json:"clientId"`
	Result     scoring.QuizResult `json:"result"`
	FinishedAt time.Time          `json:"finishedAt"`
}

func NewRecord(clientID string, result scoring.QuizResult, finishedAt time.Time) Record {
	return Record{
		ID:         uuid.New(),
		ClientID:   clientID,
		Result:     result,
		FinishedAt: finishedAt.UTC(),
	}
}

// Outcome is the memoized answer to the single recommendation request made
// for a record.
type Outcome struct {
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// OutcomeOf captures what Recommend returned.
func OutcomeOf(rec Recommendation, err error) Outcome {
	if err != nil {
		return Outcome{Error: err.Error()}
	}
	return Outcome{Recommendation: &rec}
}
