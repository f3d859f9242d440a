package session

import (
	"context"
	"errors"
	"time"

	"github.com/gokatarajesh/quizwhiz/internal/grading"
	"github.com/gokatarajesh/quizwhiz/internal/quiz"
	"github.com/gokatarajesh/quizwhiz/internal/session/scoring"
	"github.com/gokatarajesh/quizwhiz/internal/settings"
	"github.com/gokatarajesh/quizwhiz/internal/speech"
)

const (
	DefaultAutoAdvanceDelay = 3 * time.Second
	DefaultAutoMicWindow    = 10 * time.Second
)

var (
	ErrEmptyQuiz         = errors.New("quiz has no questions")
	ErrNotMultipleChoice = errors.New("current question is not multiple-choice")
	ErrNotSubjective     = errors.New("current question is not subjective")
	ErrSubmissionPending = errors.New("an answer is already being graded")
	ErrAlreadyAnswered   = errors.New("current question is already answered")
	ErrSessionCompleted  = errors.New("session is completed")
)

// Config is fixed for the lifetime of a session.
type Config struct {
	Settings         settings.Settings
	AutoAdvanceDelay time.Duration
	AutoMicWindow    time.Duration
	// GradingTimeout bounds a subjective grading call. Zero leaves it to the grader.
	GradingTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.AutoAdvanceDelay <= 0 {
		c.AutoAdvanceDelay = DefaultAutoAdvanceDelay
	}
	if c.AutoMicWindow <= 0 {
		c.AutoMicWindow = DefaultAutoMicWindow
	}
	return c
}

// Grader grades answers for the current question.
type Grader interface {
	GradeChoice(q quiz.Question, optionID string) (grading.Verdict, error)
	GradeSubjective(ctx context.Context, q quiz.Question, answer string) grading.Verdict
}

// Observer receives session output. Calls are made from the session event
// loop and must not call back into the Controller.
type Observer interface {
	StateChanged(v View)
	Notice(n Notice)
	// Completed is called exactly once per session.
	Completed(r scoring.QuizResult)
}

// Dependencies wires the collaborators a Controller drives.
type Dependencies struct {
	Grader   Grader
	Input    *speech.Input
	Output   *speech.Output
	Observer Observer
	Clock    Clock
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient, non-fatal message for the user.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// OptionView is an option as shown to the user. IsCorrect is revealed once
// the question is finalized.
type OptionView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

type QuestionView struct {
	ID          string       `json:"id"`
	Text        string       `json:"questionText"`
	Kind        quiz.Kind    `json:"questionType"`
	Options     []OptionView `json:"options"`
	Category    string       `json:"category,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}

// View is an immutable snapshot of session state.
type View struct {
	Title    string               `json:"title"`
	Index    int                  `json:"currentIndex"`
	Total    int                  `json:"totalQuestions"`
	Question QuestionView         `json:"question"`
	Answer   scoring.AnswerRecord `json:"answer"`
	Pending  bool                 `json:"pending"`
	Score    int                  `json:"score"`
	Answered int                  `json:"answered"`

	SpeechStatus          speech.Status `json:"speechStatus"`
	SpeechInputAvailable  bool          `json:"speechInputAvailable"`
	SpeechOutputAvailable bool          `json:"speechOutputAvailable"`
	InterimTranscript     string        `json:"interimTranscript,omitempty"`

	AutoAdvanceAt *time.Time `json:"autoAdvanceAt,omitempty"`
	NoSpeechAt    *time.Time `json:"noSpeechAt,omitempty"`

	Settings  settings.Settings   `json:"settings"`
	Completed bool                `json:"completed"`
	Result    *scoring.QuizResult `json:"result,omitempty"`
}
