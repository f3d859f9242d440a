package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quizwhiz/internal/auth/jwt"
	"github.com/gokatarajesh/quizwhiz/internal/grading"
	"github.com/gokatarajesh/quizwhiz/internal/quiz"
	"github.com/gokatarajesh/quizwhiz/internal/results"
	"github.com/gokatarajesh/quizwhiz/internal/server"
	"github.com/gokatarajesh/quizwhiz/internal/session/scoring"
	"github.com/gokatarajesh/quizwhiz/internal/settings"
	"github.com/gokatarajesh/quizwhiz/internal/speech"
	httperrors "github.com/gokatarajesh/quizwhiz/pkg/http/errors"
	ws "github.com/gokatarajesh/quizwhiz/pkg/http/ws"
)

// TokenValidator authenticates WebSocket clients.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// ResultWriter persists finished results beyond the Redis copy.
type ResultWriter interface {
	Save(ctx context.Context, rec results.Record) error
}

// Capabilities are the speech features the connecting client can run.
type Capabilities struct {
	SpeechInput  bool
	SpeechOutput bool
}

// HandlerOptions tunes sessions started over WebSocket.
type HandlerOptions struct {
	// Config supplies timings; settings are loaded per client.
	Config         Config
	ReapInterval   time.Duration
	PersistTimeout time.Duration
	// AllowedOrigins limits browser handshakes; same-origin and
	// Origin-less requests are always accepted.
	AllowedOrigins []string
}

// Handler serves quiz sessions over WebSocket.
type Handler struct {
	states   *StateManager
	settings settings.Store
	grader   Grader
	history  ResultWriter
	scoring  *scoring.Engine
	hub      *ws.Hub
	registry *Registry
	tokens   TokenValidator
	opts     HandlerOptions
	upgrader *websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a session WebSocket handler. history may be nil.
func NewHandler(
	states *StateManager,
	settingsStore settings.Store,
	grader Grader,
	history ResultWriter,
	engine *scoring.Engine,
	hub *ws.Hub,
	registry *Registry,
	tokens TokenValidator,
	opts HandlerOptions,
	logger zerolog.Logger,
) *Handler {
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = time.Minute
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 5 * time.Second
	}
	return &Handler{
		states:   states,
		settings: settingsStore,
		grader:   grader,
		history:  history,
		scoring:  engine,
		hub:      hub,
		registry: registry,
		tokens:   tokens,
		opts:     opts,
		upgrader: server.NewWSUpgrader(opts.AllowedOrigins),
		logger:   logger.With().Str("component", "session_ws").Logger(),
	}
}

// HandleWebSocket authenticates the client, claims its live-session lock and
// upgrades the connection. The client's active quiz is played.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !h.upgrader.CheckOrigin(r) {
		h.logger.Warn().Str("origin", r.Header.Get("Origin")).Msg("WebSocket origin rejected")
		httperrors.RespondError(w, http.StatusForbidden, httperrors.ErrCodeOriginNotAllowed, "Origin not allowed")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}
	clientID := claims.ClientID.String()

	doc, err := h.states.ActiveQuiz(r.Context(), clientID)
	if err != nil {
		h.logger.Error().Err(err).Str("client_id", clientID).Msg("load active quiz failed")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Session state unavailable")
		return
	}
	if doc == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoActiveQuiz, "Import a quiz before starting a session")
		return
	}

	lock, err := h.states.LockClient(r.Context(), clientID, LockTTL(h.opts.ReapInterval))
	if errors.Is(err, ErrLockHeld) {
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeSessionAlreadyActive, "A session is already running for this client")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("client_id", clientID).Msg("session lock failed")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Session state unavailable")
		return
	}

	caps := Capabilities{
		SpeechInput:  queryFlag(r, "speech_input"),
		SpeechOutput: queryFlag(r, "speech_output"),
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		h.releaseLock(lock)
		return
	}

	h.HandleConnection(conn, clientID, *doc, caps, lock)
}

// HandleConnection runs one session until the client disconnects.
func (h *Handler) HandleConnection(conn *websocket.Conn, clientID string, doc quiz.Document, caps Capabilities, lock *Lock) {
	logger := h.logger.With().Str("client_id", clientID).Logger()
	wsConn := ws.NewConnection(conn, logger)
	h.hub.RegisterConnection(clientID, wsConn)

	go wsConn.WritePump()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live, err := h.startSession(ctx, clientID, doc, caps, wsConn, lock, logger)
	if err != nil {
		logger.Error().Err(err).Msg("session start failed")
		_ = h.sendError(wsConn, httperrors.ErrCodeSessionStartFailed, err.Error())
		h.hub.UnregisterConnection(clientID, wsConn)
		h.releaseLock(lock)
		return
	}

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(live, wsConn, msg)
	})

	live.Controller.Close()
	h.releaseLock(lock)
	h.registry.Remove(live)
	h.hub.UnregisterConnection(clientID, wsConn)
	logger.Info().Msg("session disconnected")
}

func (h *Handler) startSession(ctx context.Context, clientID string, doc quiz.Document, caps Capabilities, conn *ws.Connection, lock *Lock, logger zerolog.Logger) (*Live, error) {
	s, err := h.settings.Load(ctx, clientID)
	if err != nil {
		logger.Warn().Err(err).Msg("load settings failed; using defaults")
		s = settings.Defaults()
	}

	cfg := h.opts.Config
	cfg.Settings = s
	ctrl, err := New(ctx, doc, cfg, Dependencies{
		Grader:   h.grader,
		Input:    speech.NewInput(speech.NewRemoteEngine(conn, caps.SpeechInput)),
		Output:   speech.NewOutput(speech.NewRemoteSynthesizer(conn, caps.SpeechOutput)),
		Observer: &connObserver{handler: h, clientID: clientID, conn: conn, logger: logger},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	live := &Live{
		ClientID:   clientID,
		Controller: ctrl,
		Disconnect: conn.Close,
		Lock:       lock,
	}
	if prev := h.registry.Add(live); prev != nil && prev.Disconnect != nil {
		prev.Disconnect()
	}

	logger.Info().
		Str("quiz", doc.Title).
		Int("questions", doc.Len()).
		Bool("speech_input", caps.SpeechInput).
		Bool("speech_output", caps.SpeechOutput).
		Msg("session started")
	ctrl.Start()
	return live, nil
}

// handleMessage routes incoming WebSocket messages to the controller.
func (h *Handler) handleMessage(live *Live, conn *ws.Connection, msg ws.Message) error {
	h.registry.Touch(live)
	ctrl := live.Controller

	switch msg.Type {
	case ws.TypeSelectOption:
		var req ws.SelectOptionPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid select_option payload")
		}
		_, err := ctrl.SelectOption(req.OptionID)
		return h.replyErr(conn, err)
	case ws.TypeSubmitAnswer:
		var req ws.SubmitAnswerPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
		}
		_, err := ctrl.SubmitSubjective(req.Text)
		return h.replyErr(conn, err)
	case ws.TypeUpdateAnswer:
		var req ws.UpdateAnswerPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid update_answer payload")
		}
		ctrl.UpdateAnswerText(req.Text)
		return nil
	case ws.TypeNext:
		ctrl.GoNext()
		return nil
	case ws.TypePrevious:
		ctrl.GoPrevious()
		return nil
	case ws.TypeEndSession:
		ctrl.EndSession()
		return nil
	case ws.TypeToggleListening:
		_, err := ctrl.ToggleListening()
		return h.replyErr(conn, err)
	case ws.TypeStartListening:
		_, err := ctrl.StartListening()
		return h.replyErr(conn, err)
	case ws.TypeStopListening:
		ctrl.StopListening()
		return nil
	case ws.TypeReadAloud:
		var req ws.ReadAloudPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid read_aloud payload")
			}
		}
		_, err := ctrl.ReadAloud(req.Text)
		return h.replyErr(conn, err)
	case ws.TypeSpeechEvent:
		var req ws.SpeechEventPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid speech_event payload")
		}
		ctrl.HandleRecognition(speech.EventFromPayload(req))
		return nil
	case ws.TypeRequestState:
		return send(conn, ws.TypeSessionState, ctrl.View())
	default:
		return h.sendError(conn, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

// replyErr reports a rejected command. Speech failures already raised a
// notice and are not repeated.
func (h *Handler) replyErr(conn *ws.Connection, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, speech.ErrUnsupported), errors.Is(err, speech.ErrAlreadyListening):
		return nil
	case errors.Is(err, ErrSubmissionPending):
		return h.sendError(conn, httperrors.ErrCodeSubmissionPending, err.Error())
	case errors.Is(err, ErrAlreadyAnswered):
		return h.sendError(conn, httperrors.ErrCodeAlreadyAnswered, err.Error())
	case errors.Is(err, ErrNotMultipleChoice), errors.Is(err, ErrNotSubjective), errors.Is(err, grading.ErrWrongKind):
		return h.sendError(conn, httperrors.ErrCodeWrongQuestionType, err.Error())
	case errors.Is(err, grading.ErrUnknownOption):
		return h.sendError(conn, httperrors.ErrCodeInvalidAnswer, err.Error())
	case errors.Is(err, ErrSessionCompleted):
		return h.sendError(conn, httperrors.ErrCodeConflict, err.Error())
	default:
		return h.sendError(conn, httperrors.ErrCodeSpeechFailed, err.Error())
	}
}

// persist stores a finished result. It runs off the session loop.
func (h *Handler) persist(rec results.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.PersistTimeout)
	defer cancel()

	logger := h.logger.With().Str("client_id", rec.ClientID).Str("result_id", rec.ID.String()).Logger()
	if err := h.states.StoreResult(ctx, rec); err != nil {
		logger.Error().Err(err).Msg("store latest result failed")
	}
	if h.history == nil {
		return
	}
	if err := h.history.Save(ctx, rec); err != nil {
		logger.Error().Err(err).Msg("save result history failed")
	}
}

func (h *Handler) releaseLock(lock *Lock) {
	if lock == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := lock.Release(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("release session lock failed")
	}
}

func (h *Handler) sendError(conn *ws.Connection, code, message string) error {
	return send(conn, ws.TypeError, ws.ErrorPayload{
		Code:    code,
		Message: message,
	})
}

func send(conn *ws.Connection, msgType string, payload any) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msgType, err)
	}
	return conn.Send(msg)
}

func queryFlag(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// connObserver forwards session output to the client connection.
type connObserver struct {
	handler  *Handler
	clientID string
	conn     *ws.Connection
	logger   zerolog.Logger
}

func (o *connObserver) StateChanged(v View) {
	o.deliver(ws.TypeSessionState, v)
}

func (o *connObserver) Notice(n Notice) {
	o.deliver(ws.TypeNotice, ws.NoticePayload{
		Level:   string(n.Level),
		Title:   n.Title,
		Message: n.Message,
	})
}

func (o *connObserver) Completed(r scoring.QuizResult) {
	rec := results.NewRecord(o.clientID, r, time.Now())
	summary := o.handler.scoring.Summarize(r)
	o.deliver(ws.TypeSessionComplete, ws.SessionCompletePayload{
		ResultID:        rec.ID.String(),
		Title:           r.Title,
		Score:           r.Score,
		TotalQuestions:  r.TotalQuestions,
		Attempted:       r.Attempted,
		Skipped:         r.Skipped,
		Percentage:      summary.Percentage,
		FeedbackMessage: summary.Feedback,
	})
	go o.handler.persist(rec)
}

func (o *connObserver) deliver(msgType string, payload any) {
	if err := send(o.conn, msgType, payload); err != nil {
		o.logger.Debug().Err(err).Str("type", msgType).Msg("drop outgoing message")
	}
}
