package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quizwhiz/internal/auth"
	"github.com/gokatarajesh/quizwhiz/internal/config"
	"github.com/gokatarajesh/quizwhiz/internal/logging"
)

// NewWSUpgrader builds the session upgrader. Browsers always send Origin on
// WebSocket handshakes and CORS does not apply to them, so the origin list is
// enforced here. Requests without Origin come from non-browser clients.
func NewWSUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[strings.ToLower(origin)] = struct{}{}
	}

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || wildcard {
				return true
			}
			if _, ok := allowed[strings.ToLower(origin)]; ok {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

// Routes are the feature handlers mounted by NewHTTPServer. Nil handlers
// are left unmounted.
type Routes struct {
	CreateClient  http.HandlerFunc
	GetMe         http.HandlerFunc
	ImportQuiz    http.HandlerFunc
	ImportOpenTDB http.HandlerFunc
	ActiveQuiz    http.HandlerFunc
	Settings      http.HandlerFunc
	LatestResult  http.HandlerFunc
	History       http.HandlerFunc
	Recommend     http.HandlerFunc
	SessionWS     http.HandlerFunc
}

// NewHTTPServer wires health, metrics and the quiz API.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, authSvc *auth.Service, routes Routes) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, pool, redis); err != nil {
			reqLogger := logging.FromContext(ctx)
			reqLogger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	public := func(pattern string, h http.HandlerFunc) {
		if h != nil {
			mux.Handle(pattern, h)
		}
	}
	private := func(pattern string, h http.HandlerFunc) {
		if h != nil {
			mux.Handle(pattern, auth.RequireAuth(h))
		}
	}

	public("/v1/clients", routes.CreateClient)
	private("/v1/clients/me", routes.GetMe)
	private("/v1/quizzes", routes.ImportQuiz)
	private("/v1/quizzes/opentdb", routes.ImportOpenTDB)
	private("/v1/quizzes/active", routes.ActiveQuiz)
	private("/v1/settings", routes.Settings)
	private("/v1/results", routes.History)
	private("/v1/results/latest", routes.LatestResult)
	private("/v1/results/latest/recommendation", routes.Recommend)

	// Browsers cannot set headers on WebSocket upgrades; the token travels
	// in the query string and the handler validates it.
	if routes.SessionWS != nil {
		mux.HandleFunc("/ws/sessions", routes.SessionWS)
	} else {
		mux.HandleFunc("/ws/sessions", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "WebSocket handler not yet integrated", http.StatusNotImplemented)
		})
	}

	var handler http.Handler = mux
	if authSvc != nil {
		handler = auth.AuthMiddleware(authSvc, logger)(handler)
	}
	handler = CORS(cfg.CORS)(handler)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

// CORS answers preflight requests and decorates responses for allowed origins.
func CORS(cfg config.CORS) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}).Handler
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redis.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
