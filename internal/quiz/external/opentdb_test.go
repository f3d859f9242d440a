package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quizwhiz/internal/quiz"
)

const sample = `{
  "response_code": 0,
  "results": [
    {
      "category": "Science &amp; Nature",
      "type": "multiple",
      "difficulty": "easy",
      "question": "What is H&#039;s symbol?",
      "correct_answer": "H",
      "incorrect_answers": ["He", "Hy", "Hd"]
    },
    {
      "category": "Science &amp; Nature",
      "type": "boolean",
      "difficulty": "easy",
      "question": "Water boils at 100&deg;C at sea level.",
      "correct_answer": "True",
      "incorrect_answers": ["False"]
    }
  ]
}`

func noShuffle(int, func(i, j int)) {}

func TestImportConvertsQuestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api.php", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("amount"))
		assert.Equal(t, "easy", r.URL.Query().Get("difficulty"))
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	client := NewOpenTDBClient(srv.URL, srv.Client())
	client.shuffle = noShuffle

	doc, err := client.Import(context.Background(), ImportRequest{Amount: 2, Difficulty: "easy"})
	require.NoError(t, err)

	assert.Equal(t, "Science & Nature", doc.Title)
	require.Len(t, doc.Questions, 2)

	first := doc.Questions[0]
	assert.Equal(t, "What is H's symbol?", first.Text)
	assert.Equal(t, quiz.KindMultipleChoice, first.Kind)
	require.Len(t, first.Options, 4)
	assert.NotEmpty(t, first.ID)
	correct, ok := first.CorrectOption()
	require.True(t, ok)
	assert.Equal(t, "H", correct.Text)

	second := doc.Questions[1]
	assert.Equal(t, "Water boils at 100°C at sea level.", second.Text)
	assert.Equal(t, "True", second.Options[0].Text)
	assert.Equal(t, "False", second.Options[1].Text)
}

func TestImportResponseCodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code": 1, "results": []}`))
	}))
	defer srv.Close()

	_, err := NewOpenTDBClient(srv.URL, srv.Client()).Import(context.Background(), ImportRequest{})
	assert.ErrorContains(t, err, "response code 1")
}

func TestImportEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code": 0, "results": []}`))
	}))
	defer srv.Close()

	_, err := NewOpenTDBClient(srv.URL, srv.Client()).Import(context.Background(), ImportRequest{Amount: 500})
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestImportHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewOpenTDBClient(srv.URL, srv.Client()).Import(context.Background(), ImportRequest{})
	assert.ErrorContains(t, err, "non-200: 503")
}

func TestValidateRejectsDuplicateOptions(t *testing.T) {
	client := NewOpenTDBClient("", nil)
	client.shuffle = noShuffle
	q := client.toQuestion(OpenTDBQuestion{Question: "Q", CorrectAnswer: "A", IncorrectAnswer: []string{"a"}})

	_, err := quiz.Validate(quiz.Document{Title: "T", Questions: []quiz.Question{q}})
	var verr *quiz.ValidationError
	assert.ErrorAs(t, err, &verr)
}
