package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/newsboy-backend/internal/pkg/httpx"
	"github.com/yungbote/newsboy-backend/internal/platform/envutil"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

const (
	DefaultURL     = "http://localhost:11434"
	DefaultModel   = "llama2"
	DefaultTimeout = 120 * time.Second
)

// Client talks to a local Ollama daemon. No auth.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

type Config struct {
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ConfigFromEnv overlays OLLAMA_* on base.
func ConfigFromEnv(log *logger.Logger, base Config) Config {
	if base.URL == "" {
		base.URL = DefaultURL
	}
	if base.Model == "" {
		base.Model = DefaultModel
	}
	if base.Timeout <= 0 {
		base.Timeout = DefaultTimeout
	}
	return Config{
		URL:     envutil.String("OLLAMA_URL", base.URL, log),
		Model:   envutil.String("OLLAMA_MODEL", base.Model, log),
		Timeout: envutil.Duration("OLLAMA_TIMEOUT_SECONDS", base.Timeout, time.Second, log),
	}
}

type client struct {
	log        *logger.Logger
	url        string
	model      string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) Client {
	url := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if url == "" {
		url = DefaultURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &client{
		log:        log.With("client", "OllamaClient"),
		url:        url,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *client) Model() string { return c.model }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate returns the "response" field of a non-streaming /api/generate call.
func (c *client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	raw, err := httpx.DoJSON(ctx, c.httpClient, httpx.Request{
		Service: "ollama",
		URL:     c.url + "/api/generate",
		Body:    generateRequest{Model: c.model, Prompt: prompt, Stream: false},
	})
	if err != nil {
		c.log.Warn("Ollama request failed",
			"model", c.model,
			"status", httpx.StatusCodeOf(err),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", err
	}
	var resp generateResponse
	if err := httpx.DecodeJSON("ollama", raw, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}
