package results

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quizwhiz/internal/session/scoring"
)

type countingRecommender struct {
	calls int
	last  RecommendRequest
	rec   Recommendation
	err   error
}

func (c *countingRecommender) Recommend(_ context.Context, req RecommendRequest) (Recommendation, error) {
	c.calls++
	c.last = req
	return c.rec, c.err
}

func newView(r Recommender) *View {
	result := scoring.QuizResult{Score: 4, TotalQuestions: 5, Title: "Astronomy", Attempted: 5}
	return NewView(result, scoring.NewEngine(scoring.DefaultConfig()), r, zerolog.New(io.Discard))
}

func TestViewSummary(t *testing.T) {
	s := newView(nil).Summary()
	assert.Equal(t, 80, s.Percentage)
	assert.Equal(t, "Excellent work! You really know your stuff!", s.Feedback)
}

func TestRecommendFiresOnce(t *testing.T) {
	rec := &countingRecommender{rec: Recommendation{NextTopic: "Astrophysics", Reason: "You aced the basics."}}
	v := newView(rec)
	assert.False(t, v.Requested())

	got, err := v.Recommend(context.Background(), "space")
	require.NoError(t, err)
	assert.Equal(t, "Astrophysics", got.NextTopic)
	assert.Equal(t, RecommendRequest{CurrentTopic: "Astronomy", Score: 4, TotalQuestions: 5, UserInterests: "space"}, rec.last)

	again, err := v.Recommend(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, rec.calls)
	assert.True(t, v.Requested())
}

func TestRecommendFailureIsReplayed(t *testing.T) {
	rec := &countingRecommender{err: errors.New("503")}
	v := newView(rec)

	_, err := v.Recommend(context.Background(), "")
	assert.ErrorIs(t, err, ErrRecommendationFailed)
	assert.Equal(t, RecommendationFailedMessage, err.Error())

	_, err = v.Recommend(context.Background(), "")
	assert.ErrorIs(t, err, ErrRecommendationFailed)
	assert.Equal(t, 1, rec.calls)
}
