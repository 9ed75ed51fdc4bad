package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/newsboy-backend/internal/data/db"
	"github.com/yungbote/newsboy-backend/internal/ingestion/fetch"
	"github.com/yungbote/newsboy-backend/internal/observability"
	"github.com/yungbote/newsboy-backend/internal/platform/envutil"
	"github.com/yungbote/newsboy-backend/internal/platform/github"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/platform/ollama"
	"github.com/yungbote/newsboy-backend/internal/platform/openai"
	"github.com/yungbote/newsboy-backend/internal/realtime/bus"
	"github.com/yungbote/newsboy-backend/internal/services"
	"github.com/yungbote/newsboy-backend/internal/summarize"
)

type ServerConfig struct {
	Port                  string        `yaml:"port"`
	AllowedOrigins        []string      `yaml:"cors_allowed_origins"`
	GenerateRatePerMinute int           `yaml:"generate_rate_per_minute"`
	ShutdownTimeout       time.Duration `yaml:"shutdown_timeout"`
}

type Config struct {
	Server    ServerConfig             `yaml:"server"`
	Database  db.Config                `yaml:"database"`
	Auth      services.AuthConfig      `yaml:"auth"`
	AI        summarize.Config         `yaml:"ai"`
	Fetch     fetch.Config             `yaml:"fetch"`
	GitHub    github.Config            `yaml:"github"`
	Analytics services.AnalyticsConfig `yaml:"analytics"`
	Events    bus.RedisConfig          `yaml:"events"`
	Otel      observability.OtelConfig `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:                  "8080",
			GenerateRatePerMinute: 30,
			ShutdownTimeout:       30 * time.Second,
		},
		Database: db.Config{
			Driver:     db.DriverPostgres,
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			Name:       "newsboy",
			SQLitePath: "newsboy.db",
		},
		Auth: services.AuthConfig{
			AccessTTL:   time.Hour,
			RememberTTL: 7 * 24 * time.Hour,
			RefreshTTL:  30 * 24 * time.Hour,
		},
		AI: summarize.Config{Provider: summarize.ProviderOpenAI},
		Fetch: fetch.Config{
			Mode:        fetch.ModePlaceholder,
			Concurrency: fetch.DefaultConcurrency,
			Timeout:     fetch.DefaultTimeout,
		},
		Events: bus.RedisConfig{Channel: bus.DefaultChannel},
		Otel: observability.OtelConfig{
			ServiceName: observability.DefaultServiceName,
			SampleRatio: 1,
		},
	}
}

// LoadConfig starts from the built-in defaults, applies the YAML file at path
// (or CONFIG_FILE) when there is one, and lets environment variables win.
func LoadConfig(log *logger.Logger, path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = envutil.String("CONFIG_FILE", "", log)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	}

	applyEnv(log, &cfg)
	return cfg, nil
}

func applyEnv(log *logger.Logger, cfg *Config) {
	s := &cfg.Server
	s.Port = envutil.String("PORT", s.Port, log)
	if origins := envutil.String("CORS_ALLOWED_ORIGINS", "", log); origins != "" {
		s.AllowedOrigins = splitList(origins)
	}
	s.GenerateRatePerMinute = envutil.Int("GENERATE_RATE_PER_MINUTE", s.GenerateRatePerMinute, log)
	s.ShutdownTimeout = envutil.Duration("SHUTDOWN_TIMEOUT_SECONDS", s.ShutdownTimeout, time.Second, log)

	d := &cfg.Database
	d.Driver = envutil.String("DB_DRIVER", d.Driver, log)
	d.DSN = envutil.String("DATABASE_URL", d.DSN, nil)
	d.Host = envutil.String("POSTGRES_HOST", d.Host, log)
	d.Port = envutil.String("POSTGRES_PORT", d.Port, log)
	d.User = envutil.String("POSTGRES_USER", d.User, log)
	d.Password = envutil.String("POSTGRES_PASSWORD", d.Password, nil)
	d.Name = envutil.String("POSTGRES_NAME", d.Name, log)
	d.SQLitePath = envutil.String("SQLITE_PATH", d.SQLitePath, log)
	d.MaxConns = envutil.Int("POSTGRES_MAX_CONNS", d.MaxConns, log)

	a := &cfg.Auth
	a.JWTSecretKey = envutil.String("JWT_SECRET_KEY", a.JWTSecretKey, nil)
	a.AccessTTL = envutil.Duration("ACCESS_TOKEN_TTL", a.AccessTTL, time.Minute, log)
	a.RememberTTL = envutil.Duration("REMEMBER_ME_TTL", a.RememberTTL, time.Minute, log)
	a.RefreshTTL = envutil.Duration("REFRESH_TOKEN_TTL", a.RefreshTTL, time.Minute, log)

	cfg.AI.Provider = envutil.String("AI_PROVIDER", cfg.AI.Provider, log)
	cfg.AI.OpenAI = openai.ConfigFromEnv(log, cfg.AI.OpenAI)
	cfg.AI.Ollama = ollama.ConfigFromEnv(log, cfg.AI.Ollama)

	cfg.Fetch.Mode = envutil.String("CONTENT_FETCH_MODE", cfg.Fetch.Mode, log)
	cfg.Fetch.Concurrency = envutil.Int("FETCH_CONCURRENCY", cfg.Fetch.Concurrency, log)
	cfg.Fetch.Timeout = envutil.Duration("FETCH_TIMEOUT_SECONDS", cfg.Fetch.Timeout, time.Second, log)

	cfg.GitHub.Token = envutil.String("GITHUB_TOKEN", cfg.GitHub.Token, nil)
	cfg.GitHub.BaseURL = envutil.String("GITHUB_API_URL", cfg.GitHub.BaseURL, log)
	cfg.Analytics.Live = envutil.Bool("GITHUB_ANALYTICS_LIVE", cfg.Analytics.Live, log)

	cfg.Events.Addr = envutil.String("REDIS_ADDR", cfg.Events.Addr, log)
	cfg.Events.Channel = envutil.String("REDIS_CHANNEL", cfg.Events.Channel, log)

	o := &cfg.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled, log)
	o.ServiceName = envutil.String("OTEL_SERVICE_NAME", o.ServiceName, log)
	o.Environment = envutil.String("APP_ENV", o.Environment, log)
	o.Version = envutil.String("APP_VERSION", o.Version, log)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint, log)
	if h := observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", nil)); h != nil {
		o.Headers = h
	}
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure, log)
	if ratio := envutil.String("OTEL_TRACES_SAMPLER_ARG", "", log); ratio != "" {
		if r, err := strconv.ParseFloat(ratio, 64); err == nil {
			o.SampleRatio = r
		} else {
			log.Warn("Invalid OTEL_TRACES_SAMPLER_ARG, keeping current ratio", "value", ratio, "ratio", o.SampleRatio)
		}
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return nil
}
