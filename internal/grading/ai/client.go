package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quizwhiz/internal/grading"
	"github.com/gokatarajesh/quizwhiz/internal/results"
)

// Config holds connection details for the AI grading service.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements grading.Grader and results.Recommender over HTTP.
type Client struct {
	httpClient   *http.Client
	config       Config
	logger       zerolog.Logger
	gradeURL     string
	recommendURL string
}

var (
	_ grading.Grader      = (*Client)(nil)
	_ results.Recommender = (*Client)(nil)
)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:       cfg,
		logger:       logger.With().Str("component", "ai_client").Logger(),
		gradeURL:     base + "/grade",
		recommendURL: base + "/recommend",
	}
}

// Grade asks the service to compare an answer with the reference answer.
func (c *Client) Grade(ctx context.Context, req grading.Request) (grading.Response, error) {
	var out gradeResponse
	if err := c.post(ctx, c.gradeURL, req, &out); err != nil {
		return grading.Response{}, err
	}
	if out.Error != "" {
		return grading.Response{}, fmt.Errorf("%w: %s", grading.ErrServiceReported, out.Error)
	}
	if out.IsCorrect == nil {
		return grading.Response{}, fmt.Errorf("%w: missing isCorrect", grading.ErrMalformedResponse)
	}
	return grading.Response{IsCorrect: *out.IsCorrect, Feedback: out.Feedback}, nil
}

// Recommend asks the service for the next topic to study.
func (c *Client) Recommend(ctx context.Context, req results.RecommendRequest) (results.Recommendation, error) {
	var out recommendResponse
	if err := c.post(ctx, c.recommendURL, req, &out); err != nil {
		return results.Recommendation{}, err
	}
	if out.Error != "" {
		return results.Recommendation{}, fmt.Errorf("recommendation service error: %s", out.Error)
	}
	if strings.TrimSpace(out.NextTopic) == "" {
		return results.Recommendation{}, fmt.Errorf("recommendation service returned empty topic")
	}
	return results.Recommendation{NextTopic: out.NextTopic, Reason: out.Reason}, nil
}

func (c *Client) post(ctx context.Context, url string, payload any, out any) error {
	if c.config.BaseURL == "" {
		return grading.ErrGraderUnavailable
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("ai service returned error status")
		return fmt.Errorf("ai service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode payload: %v", grading.ErrMalformedResponse, err)
	}
	return nil
}

type gradeResponse struct {
	IsCorrect *bool  `json:"isCorrect"`
	Feedback  string `json:"feedback"`
	Error     string `json:"error"`
}

type recommendResponse struct {
	NextTopic string `json:"nextTopic"`
	Reason    string `json:"reason"`
	Error     string `json:"error"`
}
