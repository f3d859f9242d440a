package quiz

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "title": "  General Knowledge ",
  "questions": [
    {
      "questionText": "How many legs does a spider have?",
      "options": [
        {"text": "6", "isCorrect": false},
        {"text": "8", "isCorrect": true}
      ],
      "category": "Science"
    },
    {
      "id": "q-photo",
      "questionText": "Describe photosynthesis.",
      "questionType": "subjective",
      "referenceAnswer": "Plants convert light into chemical energy."
    }
  ]
}`

func TestParseJSONAssignsIDsAndDefaults(t *testing.T) {
	doc, err := Parse([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "General Knowledge", doc.Title)
	require.Equal(t, 2, doc.Len())

	mc := doc.Questions[0]
	assert.Equal(t, KindMultipleChoice, mc.Kind)
	assert.NotEmpty(t, mc.ID)
	require.Len(t, mc.Options, 2)
	assert.NotEmpty(t, mc.Options[0].ID)
	assert.NotEqual(t, mc.Options[0].ID, mc.Options[1].ID)
	correct, ok := mc.CorrectOption()
	require.True(t, ok)
	assert.Equal(t, "8", correct.Text)

	subj := doc.Questions[1]
	assert.Equal(t, "q-photo", subj.ID)
	assert.True(t, subj.IsSubjective())
	assert.Empty(t, subj.Options)
	assert.Equal(t, "Plants convert light into chemical energy.", subj.ReferenceAnswer)
}

func TestParseYAML(t *testing.T) {
	payload := `title: Capitals
questions:
  - questionText: Capital of France?
    options:
      - text: Paris
        isCorrect: true
      - text: Lyon
        isCorrect: false
`
	doc, err := Parse([]byte(payload), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "Capitals", doc.Title)
	require.Len(t, doc.Questions, 1)
	opt, ok := doc.Questions[0].Option(doc.Questions[0].Options[0].ID)
	require.True(t, ok)
	assert.Equal(t, "Paris", opt.Text)
}

func TestParseCollectsValidationIssues(t *testing.T) {
	payload := `{
  "title": "Broken",
  "questions": [
    {"questionText": "", "options": [{"text": "a", "isCorrect": false}]},
    {"questionText": "Dupes", "options": [{"text": "Yes", "isCorrect": true}, {"text": "yes", "isCorrect": false}]},
    {"questionText": "Essay", "questionType": "subjective", "referenceAnswer": "   "},
    {"questionText": "Odd", "questionType": "matching"},
    {"questionText": "Empty"}
  ]
}`
	_, err := Parse([]byte(payload), FormatJSON)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make([]string, 0, len(verr.Issues))
	for _, issue := range verr.Issues {
		fields = append(fields, issue.Field)
	}
	assert.Contains(t, fields, "questions[0].questionText")
	assert.Contains(t, fields, "questions[0].options")
	assert.Contains(t, fields, "questions[1].options[1].text")
	assert.Contains(t, fields, "questions[2].referenceAnswer")
	assert.Contains(t, fields, "questions[3].questionType")
	assert.Contains(t, fields, "questions[4].options")
}

func TestParseRejectsDuplicateOptionIDs(t *testing.T) {
	payload := `{
  "title": "Ids",
  "questions": [
    {"id": "q1", "questionText": "Pick", "options": [
      {"id": "a", "text": "wrong", "isCorrect": false},
      {"id": "a", "text": "right", "isCorrect": true}
    ]},
    {"id": "q2", "questionText": "Again", "options": [
      {"id": "a", "text": "only", "isCorrect": true}
    ]}
  ]
}`
	_, err := Parse([]byte(payload), FormatJSON)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, "questions[0].options[1].id", verr.Issues[0].Field)
	assert.Contains(t, verr.Issues[0].Message, "duplicate id")
}

func TestParseRejectsMissingTitleAndQuestions(t *testing.T) {
	_, err := Parse([]byte(`{}`), FormatJSON)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Issues, 2)

	_, err = Parse([]byte(`{"title": "x", "questions": []}`), FormatJSON)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "questions", verr.Issues[0].Field)
}

func TestParseRejectsMissingIsCorrect(t *testing.T) {
	payload := `{"title": "t", "questions": [{"questionText": "q", "options": [{"text": "a"}]}]}`
	_, err := Parse([]byte(payload), FormatJSON)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "questions[0].options[0].isCorrect", verr.Issues[0].Field)
}

func TestParseRejectsUnknownFieldsAndWrongTypes(t *testing.T) {
	_, err := Parse([]byte(`{"title": "t", "questions": [], "extra": 1}`), FormatJSON)
	require.Error(t, err)

	_, err = Parse([]byte(`{"title": 5, "questions": []}`), FormatJSON)
	require.Error(t, err)

	_, err = Parse([]byte("title: t\nbogus: true\n"), FormatYAML)
	require.Error(t, err)

	_, err = Parse([]byte(`{"title": "a", "questions": []} {}`), FormatJSON)
	require.Error(t, err)
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quiz.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Len())

	_, err = LoadFile(filepath.Join(dir, "quiz.txt"))
	require.Error(t, err)
}

func TestFormatFromContentType(t *testing.T) {
	f, err := FormatFromContentType("application/json; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = FormatFromContentType("application/x-yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatFromContentType("text/csv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
