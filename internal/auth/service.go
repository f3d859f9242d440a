package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quizwhiz/internal/auth/jwt"
	"github.com/gokatarajesh/quizwhiz/internal/db/store"
)

const maxDisplayNameLength = 64

// ClientRegistry records issued client ids. It may be nil when no database
// is configured.
type ClientRegistry interface {
	Create(ctx context.Context, clientID uuid.UUID, displayName string) (store.Client, error)
	Touch(ctx context.Context, clientID uuid.UUID) error
}

// Service issues and validates anonymous client identities.
type Service struct {
	clients  ClientRegistry
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
}

// NewService creates an authentication service.
func NewService(clients ClientRegistry, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		clients:  clients,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// ClientRequest is the body of POST /v1/clients.
type ClientRequest struct {
	DisplayName string `json:"display_name"`
}

// ClientToken is returned to a newly registered client.
type ClientToken struct {
	ClientID    uuid.UUID `json:"client_id"`
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
}

// CreateClient registers a client and signs its token.
func (s *Service) CreateClient(ctx context.Context, req ClientRequest) (*ClientToken, error) {
	name := strings.TrimSpace(req.DisplayName)
	if len(name) > maxDisplayNameLength {
		return nil, fmt.Errorf("display_name must be at most %d characters", maxDisplayNameLength)
	}

	clientID := uuid.New()
	if s.clients != nil {
		if _, err := s.clients.Create(ctx, clientID, name); err != nil {
			return nil, fmt.Errorf("register client: %w", err)
		}
	}

	token, err := s.tokenMgr.GenerateClientToken(clientID, name)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info().Str("client_id", clientID.String()).Msg("client registered")

	return &ClientToken{
		ClientID:    clientID,
		AccessToken: token,
		ExpiresIn:   int64(s.tokenMgr.TTL() / time.Second),
	}, nil
}

// ValidateToken validates a client token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateToken(tokenString)
}

// Seen records client activity. Failures are logged and otherwise ignored.
func (s *Service) Seen(ctx context.Context, clientID uuid.UUID) {
	if s.clients == nil {
		return
	}
	if err := s.clients.Touch(ctx, clientID); err != nil {
		s.logger.Warn().Err(err).Str("client_id", clientID.String()).Msg("touch client failed")
	}
}
