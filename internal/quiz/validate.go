package quiz

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Issue captures a single problem found in a quiz file.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every issue found while normalizing a quiz.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("quiz validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// normalize turns a decoded file into a Document, assigning ids and defaults.
func normalize(raw rawDocument) (Document, error) {
	c := &issueCollector{}
	doc := Document{}

	if raw.Title == nil {
		c.add("title", "is required")
	} else {
		doc.Title = strings.TrimSpace(*raw.Title)
	}
	if raw.Questions == nil {
		c.add("questions", "is required")
	} else if len(*raw.Questions) == 0 {
		c.add("questions", "must include at least one question")
	}

	var questions []rawQuestion
	if raw.Questions != nil {
		questions = *raw.Questions
	}

	seenIDs := map[string]struct{}{}
	for i, rq := range questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		q := Question{
			ID:              strings.TrimSpace(rq.ID),
			Category:        strings.TrimSpace(rq.Category),
			Explanation:     strings.TrimSpace(rq.Explanation),
			ReferenceAnswer: strings.TrimSpace(rq.ReferenceAnswer),
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if _, dup := seenIDs[q.ID]; dup {
			c.add(prefix+".id", fmt.Sprintf("duplicate id %q", q.ID))
		}
		seenIDs[q.ID] = struct{}{}

		if rq.QuestionText == nil || strings.TrimSpace(*rq.QuestionText) == "" {
			c.add(prefix+".questionText", "is required")
		} else {
			q.Text = strings.TrimSpace(*rq.QuestionText)
		}

		switch Kind(strings.TrimSpace(rq.QuestionType)) {
		case "", KindMultipleChoice:
			q.Kind = KindMultipleChoice
			q.Options = normalizeOptions(c, prefix, rq.Options)
		case KindSubjective:
			q.Kind = KindSubjective
			q.Options = []Option{}
			if q.ReferenceAnswer == "" {
				c.add(prefix+".referenceAnswer", "is required for subjective questions")
			}
		default:
			c.add(prefix+".questionType", fmt.Sprintf("unsupported type %q", rq.QuestionType))
		}

		doc.Questions = append(doc.Questions, q)
	}

	if err := c.result(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func normalizeOptions(c *issueCollector, prefix string, raw []rawOption) []Option {
	if len(raw) == 0 {
		c.add(prefix+".options", "must include at least one option")
		return nil
	}

	options := make([]Option, 0, len(raw))
	seenText := map[string]int{}
	seenIDs := map[string]struct{}{}
	hasCorrect := false
	for j, ro := range raw {
		field := fmt.Sprintf("%s.options[%d]", prefix, j)
		opt := Option{ID: strings.TrimSpace(ro.ID)}
		if opt.ID == "" {
			opt.ID = uuid.NewString()
		}
		if _, dup := seenIDs[opt.ID]; dup {
			c.add(field+".id", fmt.Sprintf("duplicate id %q", opt.ID))
		}
		seenIDs[opt.ID] = struct{}{}
		if ro.Text == nil || strings.TrimSpace(*ro.Text) == "" {
			c.add(field+".text", "is required")
		} else {
			opt.Text = strings.TrimSpace(*ro.Text)
			key := strings.ToLower(opt.Text)
			if first, dup := seenText[key]; dup {
				c.add(field+".text", fmt.Sprintf("duplicates options[%d]", first))
			} else {
				seenText[key] = j
			}
		}
		if ro.IsCorrect == nil {
			c.add(field+".isCorrect", "is required")
		} else {
			opt.IsCorrect = *ro.IsCorrect
			hasCorrect = hasCorrect || opt.IsCorrect
		}
		options = append(options, opt)
	}
	if !hasCorrect {
		c.add(prefix+".options", "must mark at least one option as correct")
	}
	return options
}

// Validate runs the file checks on a document built in code, assigning ids
// where they are missing.
func Validate(doc Document) (Document, error) {
	title := doc.Title
	questions := make([]rawQuestion, 0, len(doc.Questions))
	for _, q := range doc.Questions {
		text := q.Text
		rq := rawQuestion{
			ID:              q.ID,
			QuestionText:    &text,
			QuestionType:    string(q.Kind),
			ReferenceAnswer: q.ReferenceAnswer,
			Category:        q.Category,
			Explanation:     q.Explanation,
		}
		for _, opt := range q.Options {
			optText, correct := opt.Text, opt.IsCorrect
			rq.Options = append(rq.Options, rawOption{ID: opt.ID, Text: &optText, IsCorrect: &correct})
		}
		questions = append(questions, rq)
	}
	return normalize(rawDocument{Title: &title, Questions: &questions})
}
