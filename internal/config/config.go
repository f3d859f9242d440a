package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quizwhiz"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Security Security
	AI       AI
	Session  Session
	Settings Settings
	OpenTDB  OpenTDB
	CORS     CORS
}

// Postgres captures connection info for the result history database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders a libpq connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// PoolDSN is DSN plus pgxpool sizing.
func (p Postgres) PoolDSN() string {
	return fmt.Sprintf("%s pool_max_conns=%d", p.DSN(), p.MaxConns)
}

// Redis holds session state and settings storage.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing client tokens.
type Security struct {
	JWTSecret string        `env:"JWT_SECRET,notEmpty"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"720h"`
}

// AI configures the grading and recommendation service. An empty URL
// disables both; subjective answers then fall back to the service-error
// feedback.
type AI struct {
	GraderURL   string        `env:"AI_GRADER_URL" envDefault:""`
	APIKey      string        `env:"AI_API_KEY" envDefault:""`
	HTTPTimeout time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"6s"`
}

// Session tunes live quiz sessions.
type Session struct {
	AutoAdvanceDelay time.Duration `env:"SESSION_AUTO_ADVANCE_DELAY" envDefault:"3s"`
	AutoMicWindow    time.Duration `env:"SESSION_AUTO_MIC_WINDOW" envDefault:"10s"`
	GradingTimeout   time.Duration `env:"SESSION_GRADING_TIMEOUT" envDefault:"15s"`
	IdleTTL          time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	ReapInterval     time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"1m"`
	StateTTL         time.Duration `env:"SESSION_STATE_TTL" envDefault:"24h"`
	PersistTimeout   time.Duration `env:"SESSION_PERSIST_TIMEOUT" envDefault:"5s"`
}

// Settings are the defaults for clients that never saved their own.
type Settings struct {
	SpeakerEnabled     bool `env:"SETTINGS_SPEAKER_DEFAULT" envDefault:"true"`
	AutoAdvanceEnabled bool `env:"SETTINGS_AUTO_ADVANCE_DEFAULT" envDefault:"true"`
	AutoMicEnabled     bool `env:"SETTINGS_AUTO_MIC_DEFAULT" envDefault:"false"`
}

// OpenTDB configures quiz import from Open Trivia DB.
type OpenTDB struct {
	BaseURL string        `env:"OPENTDB_BASE_URL" envDefault:"https://opentdb.com"`
	Timeout time.Duration `env:"OPENTDB_TIMEOUT" envDefault:"4s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
