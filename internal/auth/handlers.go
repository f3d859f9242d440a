package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/quizwhiz/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for client identity.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc: authSvc,
		logger:  logger.With().Str("component", "auth_http").Logger(),
	}
}

// CreateClient handles POST /v1/clients. The body is optional.
func (h *HTTPHandlers) CreateClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	token, err := h.authSvc.CreateClient(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("client creation failed")
		httperrors.RespondBadRequest(w, httperrors.ErrCodeClientCreationFailed, err.Error())
		return
	}

	h.respondJSON(w, http.StatusCreated, token)
}

// GetMe handles GET /v1/clients/me.
func (h *HTTPHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	h.authSvc.Seen(r.Context(), claims.ClientID)

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"client_id":    claims.ClientID.String(),
		"display_name": claims.DisplayName,
		"expires_at":   claims.ExpiresAt.Time,
	})
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
