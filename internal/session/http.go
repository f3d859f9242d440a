package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quizwhiz/internal/auth"
	"github.com/gokatarajesh/quizwhiz/internal/quiz"
	"github.com/gokatarajesh/quizwhiz/internal/quiz/external"
	"github.com/gokatarajesh/quizwhiz/internal/results"
	"github.com/gokatarajesh/quizwhiz/internal/session/scoring"
	"github.com/gokatarajesh/quizwhiz/internal/settings"
	httperrors "github.com/gokatarajesh/quizwhiz/pkg/http/errors"
)

const maxQuizBytes = 1 << 20

// QuizImporter builds a quiz from an external question source.
type QuizImporter interface {
	Import(ctx context.Context, req external.ImportRequest) (quiz.Document, error)
}

// HistoryReader lists persisted results for a client, newest first.
type HistoryReader interface {
	ListByClient(ctx context.Context, clientID string, limit int) ([]results.Record, error)
}

// HTTPHandlers provides REST endpoints around a client's session state.
type HTTPHandlers struct {
	states      *StateManager
	settings    settings.Store
	importer    QuizImporter
	history     HistoryReader
	recommender results.Recommender
	scoring     *scoring.Engine
	claimTTL    time.Duration
	logger      zerolog.Logger
}

// DefaultRecommendationClaimTTL bounds an in-flight recommendation request.
const DefaultRecommendationClaimTTL = 30 * time.Second

// HTTPDependencies wires the collaborators of HTTPHandlers. Importer, History
// and Recommender are optional.
type HTTPDependencies struct {
	States      *StateManager
	Settings    settings.Store
	Importer    QuizImporter
	History     HistoryReader
	Recommender results.Recommender
	Scoring     *scoring.Engine
	// ClaimTTL is how long a recommendation request may run before another
	// one can take over. Defaults to DefaultRecommendationClaimTTL.
	ClaimTTL time.Duration
}

func NewHTTPHandlers(deps HTTPDependencies, logger zerolog.Logger) *HTTPHandlers {
	if deps.Scoring == nil {
		deps.Scoring = scoring.NewEngine(scoring.DefaultConfig())
	}
	if deps.ClaimTTL <= 0 {
		deps.ClaimTTL = DefaultRecommendationClaimTTL
	}
	return &HTTPHandlers{
		states:      deps.States,
		settings:    deps.Settings,
		importer:    deps.Importer,
		history:     deps.History,
		recommender: deps.Recommender,
		scoring:     deps.Scoring,
		claimTTL:    deps.ClaimTTL,
		logger:      logger.With().Str("component", "session_http").Logger(),
	}
}

// ImportQuiz handles POST /v1/quizzes. The body is a JSON or YAML quiz.
func (h *HTTPHandlers) ImportQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	clientID := auth.ClientID(r.Context())

	format, err := quiz.FormatFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		httperrors.RespondError(w, http.StatusUnsupportedMediaType, httperrors.ErrCodeUnsupportedMediaType, err.Error())
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQuizBytes))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Quiz body is too large or unreadable")
		return
	}

	doc, err := quiz.Parse(data, format)
	if err != nil {
		respondQuizError(w, err)
		return
	}

	h.activate(w, r, clientID, doc)
}

// ImportOpenTDB handles POST /v1/quizzes/opentdb.
func (h *HTTPHandlers) ImportOpenTDB(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	if h.importer == nil {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Quiz import is not configured")
		return
	}
	clientID := auth.ClientID(r.Context())

	q := r.URL.Query()
	req := external.ImportRequest{
		Difficulty: q.Get("difficulty"),
		Title:      q.Get("title"),
	}
	var err error
	if req.Amount, err = optionalInt(q.Get("amount")); err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "amount must be a number", "amount")
		return
	}
	if req.Category, err = optionalInt(q.Get("category")); err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "category must be a number", "category")
		return
	}

	doc, err := h.importer.Import(r.Context(), req)
	switch {
	case errors.Is(err, external.ErrNoResults):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "No questions matched the request")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("client_id", clientID).Msg("opentdb import failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "Failed to import questions")
		return
	}

	h.activate(w, r, clientID, doc)
}

func (h *HTTPHandlers) activate(w http.ResponseWriter, r *http.Request, clientID string, doc quiz.Document) {
	if err := h.states.StoreQuiz(r.Context(), clientID, doc); err != nil {
		h.logger.Error().Err(err).Str("client_id", clientID).Msg("store active quiz failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeImportFailed, "Failed to store quiz")
		return
	}
	h.logger.Info().Str("client_id", clientID).Str("quiz", doc.Title).Int("questions", doc.Len()).Msg("quiz imported")
	httperrors.RespondJSON(w, http.StatusCreated, doc)
}

// ActiveQuiz handles GET and DELETE /v1/quizzes/active. DELETE starts over:
// the quiz and its last result are dropped.
func (h *HTTPHandlers) ActiveQuiz(w http.ResponseWriter, r *http.Request) {
	clientID := auth.ClientID(r.Context())

	switch r.Method {
	case http.MethodGet:
		doc, err := h.states.ActiveQuiz(r.Context(), clientID)
		if err != nil {
			h.logger.Error().Err(err).Str("client_id", clientID).Msg("load active quiz failed")
			httperrors.RespondInternalError(w, "Failed to load quiz")
			return
		}
		if doc == nil {
			httperrors.RespondNotFound(w, httperrors.ErrCodeNoActiveQuiz, "No active quiz")
			return
		}
		httperrors.RespondJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := h.states.Reset(r.Context(), clientID); err != nil {
			h.logger.Error().Err(err).Str("client_id", clientID).Msg("reset quiz failed")
			httperrors.RespondInternalError(w, "Failed to reset quiz")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httperrors.RespondMethodNotAllowed(w)
	}
}

// Settings handles GET and PUT /v1/settings. PUT accepts a partial update.
func (h *HTTPHandlers) Settings(w http.ResponseWriter, r *http.Request) {
	clientID := auth.ClientID(r.Context())

	switch r.Method {
	case http.MethodGet:
		s, err := h.settings.Load(r.Context(), clientID)
		if err != nil {
			h.logger.Error().Err(err).Str("client_id", clientID).Msg("load settings failed")
			httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSettingsFailed, "Failed to load settings")
			return
		}
		httperrors.RespondJSON(w, http.StatusOK, s)
	case http.MethodPut:
		var patch settings.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
			return
		}
		s, err := settings.Update(r.Context(), h.settings, clientID, patch)
		if err != nil {
			h.logger.Error().Err(err).Str("client_id", clientID).Msg("update settings failed")
			httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSettingsFailed, "Failed to save settings")
			return
		}
		httperrors.RespondJSON(w, http.StatusOK, s)
	default:
		httperrors.RespondMethodNotAllowed(w)
	}
}

// LatestResultResponse is the results display payload.
type LatestResultResponse struct {
	Record         results.Record   `json:"record"`
	Summary        scoring.Summary  `json:"summary"`
	Recommendation *results.Outcome `json:"recommendation,omitempty"`
}

// LatestResult handles GET /v1/results/latest.
func (h *HTTPHandlers) LatestResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	clientID := auth.ClientID(r.Context())

	rec, ok := h.lastResult(w, r, clientID)
	if !ok {
		return
	}

	outcome, err := h.states.Recommendation(r.Context(), rec.ID)
	if err != nil {
		h.logger.Warn().Err(err).Str("client_id", clientID).Msg("load recommendation failed")
	}
	httperrors.RespondJSON(w, http.StatusOK, LatestResultResponse{
		Record:         *rec,
		Summary:        h.scoring.Summarize(rec.Result),
		Recommendation: outcome,
	})
}

// History handles GET /v1/results?limit=.
func (h *HTTPHandlers) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	if h.history == nil {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Result history is not configured")
		return
	}
	clientID := auth.ClientID(r.Context())

	limit, err := optionalInt(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "limit must be a positive number", "limit")
		return
	}

	records, err := h.history.ListByClient(r.Context(), clientID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("client_id", clientID).Msg("list history failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeHistoryFetchFailed, "Failed to load history")
		return
	}
	if records == nil {
		records = []results.Record{}
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"results": records,
	})
}

type recommendRequest struct {
	Interests string `json:"interests"`
}

// Recommend handles POST /v1/results/latest/recommendation. The
// recommendation service is called at most once per result; later requests
// replay the stored outcome.
func (h *HTTPHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	clientID := auth.ClientID(r.Context())

	var req recommendRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
			return
		}
	}

	rec, ok := h.lastResult(w, r, clientID)
	if !ok {
		return
	}

	claimed, err := h.states.ClaimRecommendation(r.Context(), rec.ID, h.claimTTL)
	if err != nil {
		h.logger.Error().Err(err).Str("client_id", clientID).Msg("claim recommendation failed")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Session state unavailable")
		return
	}

	if !claimed {
		outcome, err := h.states.Recommendation(r.Context(), rec.ID)
		if err != nil {
			h.logger.Error().Err(err).Str("client_id", clientID).Msg("load recommendation failed")
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Session state unavailable")
			return
		}
		if outcome == nil {
			httperrors.RespondConflict(w, httperrors.ErrCodeRecommendationPending, "Recommendation is being prepared")
			return
		}
		respondOutcome(w, *outcome)
		return
	}

	// The call must finish before the claim lapses.
	callCtx, cancel := context.WithTimeout(r.Context(), h.claimTTL)
	defer cancel()
	view := results.NewView(rec.Result, h.scoring, h.recommender, h.logger)
	outcome := results.OutcomeOf(view.Recommend(callCtx, req.Interests))
	if err := h.states.StoreRecommendation(context.WithoutCancel(r.Context()), rec.ID, outcome); err != nil {
		h.logger.Error().Err(err).Str("client_id", clientID).Msg("store recommendation failed")
	}
	respondOutcome(w, outcome)
}

func (h *HTTPHandlers) lastResult(w http.ResponseWriter, r *http.Request, clientID string) (*results.Record, bool) {
	rec, err := h.states.LastResult(r.Context(), clientID)
	if err != nil {
		h.logger.Error().Err(err).Str("client_id", clientID).Msg("load last result failed")
		httperrors.RespondInternalError(w, "Failed to load result")
		return nil, false
	}
	if rec == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeResultNotFound, "No finished quiz")
		return nil, false
	}
	return rec, true
}

func respondOutcome(w http.ResponseWriter, outcome results.Outcome) {
	if outcome.Recommendation == nil {
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeRecommendationFailed, results.RecommendationFailedMessage)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, outcome.Recommendation)
}

func respondQuizError(w http.ResponseWriter, err error) {
	var verr *quiz.ValidationError
	if errors.As(err, &verr) {
		httperrors.RespondErrorWithDetails(w, http.StatusBadRequest, httperrors.ErrCodeValidationFailed, "Quiz is invalid", map[string]interface{}{
			"issues": verr.Issues,
		})
		return
	}
	httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, err.Error())
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
