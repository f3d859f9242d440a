package quiz

// Kind distinguishes how a question is answered and graded.
type Kind string

const (
	KindMultipleChoice Kind = "multiple-choice"
	KindSubjective     Kind = "subjective"
)

// Option is a selectable answer for a multiple-choice question.
type Option struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"isCorrect" yaml:"isCorrect"`
}

// Question is a validated quiz question. Options are empty for subjective questions.
type Question struct {
	ID              string   `json:"id" yaml:"id"`
	Text            string   `json:"questionText" yaml:"questionText"`
	Kind            Kind     `json:"questionType" yaml:"questionType"`
	Options         []Option `json:"options" yaml:"options"`
	ReferenceAnswer string   `json:"referenceAnswer,omitempty" yaml:"referenceAnswer,omitempty"`
	Category        string   `json:"category,omitempty" yaml:"category,omitempty"`
	Explanation     string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Document is an imported quiz. It is treated as read-only once a session starts.
type Document struct {
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

func (q Question) IsSubjective() bool {
	return q.Kind == KindSubjective
}

// Option looks up an option by id.
func (q Question) Option(id string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// CorrectOption returns the first option marked correct.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return opt, true
		}
	}
	return Option{}, false
}

// Len reports the number of questions.
func (d Document) Len() int {
	return len(d.Questions)
}
