package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/newsboy-backend/internal/pkg/httpx"
	"github.com/yungbote/newsboy-backend/internal/platform/envutil"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "gpt-3.5-turbo"
	DefaultTimeout = 60 * time.Second

	chatCompletionsPath = "/v1/chat/completions"
)

// ErrEmptyChoices is returned when a 2xx reply carries no usable message.
var ErrEmptyChoices = errors.New("openai: response has no choices")

// Client is the hosted chat-completions client.
type Client interface {
	// Chat sends one system+user exchange and returns the first choice's text.
	Chat(ctx context.Context, system, user string) (string, error)
	Model() string
}

type Config struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
}

// ConfigFromEnv overlays OPENAI_* on base. Fields left empty in both fall
// back to the package defaults.
func ConfigFromEnv(log *logger.Logger, base Config) Config {
	if base.BaseURL == "" {
		base.BaseURL = DefaultBaseURL
	}
	if base.Model == "" {
		base.Model = DefaultModel
	}
	if base.Timeout <= 0 {
		base.Timeout = DefaultTimeout
	}
	if base.Temperature == 0 {
		base.Temperature = 0.3
	}
	return Config{
		APIKey:      envutil.String("OPENAI_API_KEY", base.APIKey, nil),
		BaseURL:     envutil.String("OPENAI_BASE_URL", base.BaseURL, log),
		Model:       envutil.String("OPENAI_MODEL", base.Model, log),
		Timeout:     envutil.Duration("OPENAI_TIMEOUT_SECONDS", base.Timeout, time.Second, log),
		Temperature: base.Temperature,
	}
}

type client struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
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
		log:         log.With("client", "OpenAIClient"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *client) Chat(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	}

	start := time.Now()
	raw, err := httpx.DoJSON(ctx, c.httpClient, httpx.Request{
		Service: "openai",
		URL:     c.baseURL + chatCompletionsPath,
		Headers: map[string]string{"Authorization": "Bearer " + c.apiKey},
		Body:    req,
	})
	if err != nil {
		c.log.Warn("OpenAI request failed",
			"model", c.model,
			"status", httpx.StatusCodeOf(err),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", err
	}

	var resp chatResponse
	if err := httpx.DecodeJSON("openai", raw, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyChoices
	}
	c.log.Debug("OpenAI request done",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.Choices[0].Message.Content, nil
}
