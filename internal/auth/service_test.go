package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quizwhiz/internal/auth/jwt"
	"github.com/gokatarajesh/quizwhiz/internal/db/store"
)

type mockClientRegistry struct {
	mock.Mock
}

func (m *mockClientRegistry) Create(ctx context.Context, clientID uuid.UUID, displayName string) (store.Client, error) {
	args := m.Called(ctx, clientID, displayName)
	return args.Get(0).(store.Client), args.Error(1)
}

func (m *mockClientRegistry) Touch(ctx context.Context, clientID uuid.UUID) error {
	return m.Called(ctx, clientID).Error(0)
}

func newTestService(clients ClientRegistry) *Service {
	return NewService(clients, ServiceOptions{
		TokenConfig: jwt.TokenConfig{Secret: []byte("test-secret")},
	}, zerolog.New(io.Discard))
}

func TestCreateClientIssuesValidToken(t *testing.T) {
	clients := new(mockClientRegistry)
	clients.On("Create", mock.Anything, mock.AnythingOfType("uuid.UUID"), "Ada").Return(store.Client{}, nil)
	svc := newTestService(clients)

	token, err := svc.CreateClient(context.Background(), ClientRequest{DisplayName: "  Ada "})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, token.ClientID)
	assert.Equal(t, int64(30*24*3600), token.ExpiresIn)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, token.ClientID, claims.ClientID)
	assert.Equal(t, "Ada", claims.DisplayName)
	clients.AssertExpectations(t)
}

func TestCreateClientWithoutRegistry(t *testing.T) {
	svc := newTestService(nil)

	token, err := svc.CreateClient(context.Background(), ClientRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
}

func TestCreateClientRegistryFailure(t *testing.T) {
	clients := new(mockClientRegistry)
	clients.On("Create", mock.Anything, mock.Anything, "").Return(store.Client{}, errors.New("db down"))
	svc := newTestService(clients)

	_, err := svc.CreateClient(context.Background(), ClientRequest{})
	assert.ErrorContains(t, err, "register client")
}

func TestCreateClientRejectsLongName(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.CreateClient(context.Background(), ClientRequest{DisplayName: strings.Repeat("x", 65)})
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	svc := newTestService(nil)
	token, err := svc.CreateClient(context.Background(), ClientRequest{})
	require.NoError(t, err)

	var seen string
	handler := AuthMiddleware(svc, zerolog.New(io.Discard))(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid", header: "Bearer " + token.AccessToken, status: http.StatusNoContent},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "malformed", header: "Token abc", status: http.StatusUnauthorized},
		{name: "invalid", header: "Bearer abc", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/settings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, token.ClientID.String(), seen)
}

func TestCreateClientHandler(t *testing.T) {
	h := NewHTTPHandlers(newTestService(nil), zerolog.New(io.Discard))

	rec := httptest.NewRecorder()
	h.CreateClient(rec, httptest.NewRequest(http.MethodPost, "/v1/clients", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_token")

	rec = httptest.NewRecorder()
	h.CreateClient(rec, httptest.NewRequest(http.MethodGet, "/v1/clients", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
