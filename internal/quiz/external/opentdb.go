// Package external imports quizzes from public trivia sources.
package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gokatarajesh/quizwhiz/internal/quiz"
)

const (
	maxAmount     = 50
	defaultAmount = 10
)

var ErrNoResults = errors.New("opentdb returned no questions")

// OpenTDBClient fetches questions from the Open Trivia DB (no API key).
type OpenTDBClient struct {
	baseURL    string
	httpClient *http.Client
	shuffle    func(n int, swap func(i, j int))
}

func NewOpenTDBClient(baseURL string, httpClient *http.Client) *OpenTDBClient {
	if baseURL == "" {
		baseURL = "https://opentdb.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &OpenTDBClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		shuffle:    rand.Shuffle,
	}
}

type OpenTDBQuestion struct {
	Category        string   `json:"category"`
	Type            string   `json:"type"`
	Difficulty      string   `json:"difficulty"`
	Question        string   `json:"question"`
	CorrectAnswer   string   `json:"correct_answer"`
	IncorrectAnswer []string `json:"incorrect_answers"`
}

type openTDBResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []OpenTDBQuestion `json:"results"`
}

// ImportRequest selects questions to pull.
type ImportRequest struct {
	Amount     int
	Difficulty string
	Category   int
	Title      string
}

// Fetch returns raw questions. Text fields are HTML-escaped as served.
func (c *OpenTDBClient) Fetch(ctx context.Context, req ImportRequest) ([]OpenTDBQuestion, error) {
	values := url.Values{}
	values.Set("amount", fmt.Sprint(req.Amount))
	if req.Difficulty != "" {
		values.Set("difficulty", req.Difficulty)
	}
	if req.Category > 0 {
		values.Set("category", fmt.Sprint(req.Category))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api.php?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opentdb non-200: %d", resp.StatusCode)
	}

	var payload openTDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response code %d", payload.ResponseCode)
	}
	return payload.Results, nil
}

// Import fetches questions and converts them into a validated multiple-choice quiz.
func (c *OpenTDBClient) Import(ctx context.Context, req ImportRequest) (quiz.Document, error) {
	if req.Amount <= 0 {
		req.Amount = defaultAmount
	}
	if req.Amount > maxAmount {
		req.Amount = maxAmount
	}

	raw, err := c.Fetch(ctx, req)
	if err != nil {
		return quiz.Document{}, fmt.Errorf("fetch opentdb: %w", err)
	}
	if len(raw) == 0 {
		return quiz.Document{}, ErrNoResults
	}

	doc := quiz.Document{Title: req.Title}
	if doc.Title == "" {
		doc.Title = defaultTitle(raw)
	}
	for _, q := range raw {
		doc.Questions = append(doc.Questions, c.toQuestion(q))
	}
	return quiz.Validate(doc)
}

func (c *OpenTDBClient) toQuestion(q OpenTDBQuestion) quiz.Question {
	options := make([]quiz.Option, 0, len(q.IncorrectAnswer)+1)
	options = append(options, quiz.Option{Text: html.UnescapeString(q.CorrectAnswer), IsCorrect: true})
	for _, wrong := range q.IncorrectAnswer {
		options = append(options, quiz.Option{Text: html.UnescapeString(wrong)})
	}
	// True/false keeps its natural order.
	if q.Type != "boolean" {
		c.shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	}
	return quiz.Question{
		Text:     html.UnescapeString(q.Question),
		Kind:     quiz.KindMultipleChoice,
		Options:  options,
		Category: html.UnescapeString(q.Category),
	}
}

func defaultTitle(raw []OpenTDBQuestion) string {
	category := html.UnescapeString(raw[0].Category)
	for _, q := range raw[1:] {
		if html.UnescapeString(q.Category) != category {
			return "Trivia Mix"
		}
	}
	return category
}
