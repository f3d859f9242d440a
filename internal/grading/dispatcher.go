// Package grading decides whether an answer is correct. Multiple-choice answers
// are graded locally; subjective answers go to a remote grader.
package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quizwhiz/internal/metrics"
	"github.com/gokatarajesh/quizwhiz/internal/quiz"
)

// Dispatcher routes questions to the right grading strategy.
type Dispatcher struct {
	grader Grader
	logger zerolog.Logger
	now    func() time.Time
}

// NewDispatcher builds a dispatcher. A nil grader makes every subjective
// submission fall back to the service error verdict.
func NewDispatcher(grader Grader, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		grader: grader,
		logger: logger.With().Str("component", "grading").Logger(),
		now:    time.Now,
	}
}

// GradeChoice grades a multiple-choice selection synchronously.
func (d *Dispatcher) GradeChoice(q quiz.Question, optionID string) (Verdict, error) {
	if q.IsSubjective() {
		return Verdict{}, ErrWrongKind
	}
	opt, ok := q.Option(optionID)
	if !ok {
		return Verdict{}, fmt.Errorf("%w: %s", ErrUnknownOption, optionID)
	}
	metrics.ObserveVerdict(string(q.Kind), opt.IsCorrect)
	return Verdict{Correct: opt.IsCorrect, Feedback: q.Explanation}, nil
}

// GradeSubjective grades free text with a single remote attempt. Failures are
// folded into an incorrect verdict carrying the error.
func (d *Dispatcher) GradeSubjective(ctx context.Context, q quiz.Question, answer string) Verdict {
	if strings.TrimSpace(answer) == "" {
		metrics.ObserveVerdict(string(quiz.KindSubjective), false)
		return Verdict{Correct: false, Feedback: BlankAnswerFeedback}
	}
	if strings.TrimSpace(q.ReferenceAnswer) == "" {
		metrics.ObserveVerdict(string(quiz.KindSubjective), false)
		return Verdict{Correct: false, Feedback: NoReferenceFeedback}
	}
	if d.grader == nil {
		metrics.ObserveGradingFailure("unconfigured")
		return Verdict{Correct: false, Feedback: ServiceErrorFeedback, Err: ErrGraderUnavailable}
	}

	started := d.now()
	resp, err := d.grader.Grade(ctx, Request{
		QuestionText:    q.Text,
		UserAnswer:      answer,
		ReferenceAnswer: q.ReferenceAnswer,
	})
	metrics.ObserveGradingLatency(d.now().Sub(started).Seconds())
	if err != nil {
		metrics.ObserveGradingFailure(failureReason(err))
		d.logger.Warn().Err(err).Str("question_id", q.ID).Msg("subjective grading failed")
		return Verdict{Correct: false, Feedback: ServiceErrorFeedback, Err: err}
	}

	metrics.ObserveVerdict(string(quiz.KindSubjective), resp.IsCorrect)
	return Verdict{Correct: resp.IsCorrect, Feedback: resp.Feedback}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrServiceReported):
		return "service"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "transport"
	}
}
