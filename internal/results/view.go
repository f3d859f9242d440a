// Package results backs the results display: score summary plus a single
// next-topic recommendation per view.
package results

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quizwhiz/internal/session/scoring"
)

const RecommendationFailedMessage = "Failed to get topic recommendation. Please try again."

var ErrRecommendationFailed = errors.New(RecommendationFailedMessage)

// RecommendRequest is the recommendation service contract input.
type RecommendRequest struct {
	CurrentTopic   string `json:"currentTopic"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	UserInterests  string `json:"userInterests,omitempty"`
}

// Recommendation is the recommendation service contract output.
type Recommendation struct {
	NextTopic string `json:"nextTopic"`
	Reason    string `json:"reason"`
}

// Recommender suggests what to study next.
type Recommender interface {
	Recommend(ctx context.Context, req RecommendRequest) (Recommendation, error)
}

// View holds one finished result. Recommend reaches the service at most once;
// later calls replay the first outcome.
type View struct {
	result      scoring.QuizResult
	engine      *scoring.Engine
	recommender Recommender
	logger      zerolog.Logger

	mu        sync.Mutex
	requested bool
	rec       Recommendation
	err       error
}

func NewView(result scoring.QuizResult, engine *scoring.Engine, recommender Recommender, logger zerolog.Logger) *View {
	return &View{
		result:      result,
		engine:      engine,
		recommender: recommender,
		logger:      logger.With().Str("component", "results").Logger(),
	}
}

func (v *View) Summary() scoring.Summary {
	return v.engine.Summarize(v.result)
}

// Requested reports whether Recommend has already been called.
func (v *View) Requested() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.requested
}

// Recommend asks for the next topic. Service errors are replaced by
// ErrRecommendationFailed.
func (v *View) Recommend(ctx context.Context, interests string) (Recommendation, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.requested {
		return v.rec, v.err
	}
	v.requested = true

	if v.recommender == nil {
		v.err = ErrRecommendationFailed
		return v.rec, v.err
	}

	rec, err := v.recommender.Recommend(ctx, RecommendRequest{
		CurrentTopic:   v.result.Title,
		Score:          v.result.Score,
		TotalQuestions: v.result.TotalQuestions,
		UserInterests:  interests,
	})
	if err != nil {
		v.logger.Warn().Err(err).Str("topic", v.result.Title).Msg("topic recommendation failed")
		v.err = ErrRecommendationFailed
		return v.rec, v.err
	}
	v.rec = rec
	return v.rec, nil
}
