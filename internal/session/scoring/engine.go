package scoring

import "math"

// Outcome is the grading state of a single question.
type Outcome string

const (
	OutcomeUnknown   Outcome = "unknown"
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// AnswerRecord is the per-question answer state kept by a session.
type AnswerRecord struct {
	SelectedOptionID string  `json:"selectedOptionId,omitempty"`
	SubjectiveText   string  `json:"subjectiveText"`
	Outcome          Outcome `json:"outcome"`
	Feedback         string  `json:"feedback,omitempty"`
	Finalized        bool    `json:"isFinalized"`
}

// QuizResult is the write-once summary of a finished session.
type QuizResult struct {
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	Title          string `json:"quizTitle"`
	Attempted      int    `json:"attemptedQuestions"`
	Skipped        int    `json:"skippedQuestions"`
}

// Aggregate reduces per-question records into a result. Records beyond total
// are ignored; missing records count as skipped.
func Aggregate(title string, total int, records []AnswerRecord) QuizResult {
	result := QuizResult{Title: title, TotalQuestions: total}
	for i, rec := range records {
		if i >= total {
			break
		}
		if rec.Finalized {
			result.Attempted++
		}
		if rec.Outcome == OutcomeCorrect {
			result.Score++
		}
	}
	result.Skipped = total - result.Attempted
	return result
}

// Percentage returns the rounded share of correct answers, 0 for an empty quiz.
func Percentage(r QuizResult) int {
	if r.TotalQuestions <= 0 {
		return 0
	}
	return int(math.Round(float64(r.Score) / float64(r.TotalQuestions) * 100))
}

// Tier maps a minimum percentage to a feedback message.
type Tier struct {
	MinPercent int
	Message    string
}

// Config holds feedback tiers ordered from highest threshold to lowest.
type Config struct {
	Tiers    []Tier
	Fallback string
}

// DefaultConfig returns the production feedback tiers.
func DefaultConfig() Config {
	return Config{
		Tiers: []Tier{
			{MinPercent: 80, Message: "Excellent work! You really know your stuff!"},
			{MinPercent: 60, Message: "Good job! Solid performance."},
			{MinPercent: 40, Message: "Not bad! Keep practicing to improve."},
		},
		Fallback: "Keep learning and try again! Every attempt is progress.",
	}
}

// Engine turns results into display summaries.
type Engine struct {
	config Config
}

func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Summary is a result decorated for the results display.
type Summary struct {
	QuizResult
	Percentage int    `json:"percentage"`
	Feedback   string `json:"feedbackMessage"`
}

// FeedbackMessage picks the first tier whose threshold the percentage meets.
func (e *Engine) FeedbackMessage(percentage int) string {
	for _, tier := range e.config.Tiers {
		if percentage >= tier.MinPercent {
			return tier.Message
		}
	}
	return e.config.Fallback
}

func (e *Engine) Summarize(r QuizResult) Summary {
	pct := Percentage(r)
	return Summary{QuizResult: r, Percentage: pct, Feedback: e.FeedbackMessage(pct)}
}
