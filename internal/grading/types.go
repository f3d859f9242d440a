package grading

import (
	"context"
	"errors"
)

const (
	BlankAnswerFeedback  = "The answer was left blank. Please provide an answer."
	NoReferenceFeedback  = "This question cannot be graded because it has no reference answer."
	ServiceErrorFeedback = "The AI grading service experienced an issue. Your answer could not be graded at this time. Please proceed to the next question."
)

var (
	ErrUnknownOption     = errors.New("option does not belong to question")
	ErrWrongKind         = errors.New("question kind does not support this grading mode")
	ErrGraderUnavailable = errors.New("grading service not configured")
	ErrServiceReported   = errors.New("grading service reported an error")
	ErrMalformedResponse = errors.New("grading service returned a malformed response")
)

// Request is the remote grading contract input.
type Request struct {
	QuestionText    string `json:"questionText"`
	UserAnswer      string `json:"userAnswer"`
	ReferenceAnswer string `json:"referenceAnswer"`
}

// Response is the remote grading contract output.
type Response struct {
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback"`
}

// Grader grades a free-text answer against a reference answer.
type Grader interface {
	Grade(ctx context.Context, req Request) (Response, error)
}

// Verdict is the outcome applied to a session. Err is set when the remote
// grader failed and the verdict is a local fallback.
type Verdict struct {
	Correct  bool
	Feedback string
	Err      error
}
