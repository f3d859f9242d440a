package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gokatarajesh/quizwhiz/internal/config"
)

func corsConfig() config.CORS {
	return config.CORS{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           600,
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := CORS(corsConfig())(next)

	tests := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{name: "no origin", method: http.MethodGet, wantStatus: http.StatusTeapot},
		{name: "allowed simple", method: http.MethodGet, origin: "http://localhost:3000", wantStatus: http.StatusTeapot, wantAllowed: "http://localhost:3000"},
		{name: "allowed preflight", method: http.MethodOptions, origin: "http://localhost:3000", preflight: true, wantStatus: http.StatusNoContent, wantAllowed: "http://localhost:3000"},
		{name: "foreign preflight", method: http.MethodOptions, origin: "http://evil.test", preflight: true, wantStatus: http.StatusNoContent},
		{name: "foreign simple", method: http.MethodGet, origin: "http://evil.test", wantStatus: http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/settings", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllowed, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantAllowed != "" {
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			}
			if tt.preflight && tt.wantAllowed != "" {
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
				assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestWSUpgraderCheckOrigin(t *testing.T) {
	upgrader := NewWSUpgrader([]string{"http://localhost:3000"})

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{name: "no origin", want: true},
		{name: "listed origin", origin: "http://localhost:3000", want: true},
		{name: "listed origin any case", origin: "HTTP://LOCALHOST:3000", want: true},
		{name: "same origin", origin: "http://quiz.test", want: true},
		{name: "foreign origin", origin: "http://evil.example", want: false},
		{name: "malformed origin", origin: "::", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://quiz.test/ws/sessions", nil)
			req.Header.Set("Connection", "Upgrade")
			req.Header.Set("Upgrade", "websocket")
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, upgrader.CheckOrigin(req))
		})
	}

	wildcard := NewWSUpgrader([]string{"*"})
	req := httptest.NewRequest(http.MethodGet, "http://quiz.test/ws/sessions", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	assert.True(t, wildcard.CheckOrigin(req))
}
