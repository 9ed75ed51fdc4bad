package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/platform/ollama"
	"github.com/yungbote/newsboy-backend/internal/platform/openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Summarizer turns raw content into a summary plus key points. Any transport,
// status or decode failure is returned as is; there is no retry.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (Result, error)
	Provider() string
}

type Config struct {
	Provider string        `yaml:"provider"`
	OpenAI   openai.Config `yaml:"openai"`
	Ollama   ollama.Config `yaml:"ollama"`
}

// New selects exactly one backend by cfg.Provider. Unknown names are rejected.
func New(log *logger.Logger, cfg Config) (Summarizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		c, err := openai.NewClient(log, cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return NewOpenAI(log, c), nil
	case ProviderOllama:
		return NewOllama(log, ollama.NewClient(log, cfg.Ollama)), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

type openAISummarizer struct {
	log    *logger.Logger
	client openai.Client
}

func NewOpenAI(log *logger.Logger, c openai.Client) Summarizer {
	return &openAISummarizer{log: log.With("component", "Summarizer", "provider", ProviderOpenAI), client: c}
}

func (s *openAISummarizer) Provider() string { return ProviderOpenAI }

func (s *openAISummarizer) Summarize(ctx context.Context, req Request) (Result, error) {
	text, err := s.client.Chat(ctx, SystemPrompt, BuildPrompt(req))
	if err != nil {
		return Result{}, fmt.Errorf("openai summarize: %w", err)
	}
	res := ParseResult(text)
	s.log.Debug("Summary generated", "model", s.client.Model(), "key_points", len(res.KeyPoints))
	return res, nil
}

type ollamaSummarizer struct {
	log    *logger.Logger
	client ollama.Client
}

func NewOllama(log *logger.Logger, c ollama.Client) Summarizer {
	return &ollamaSummarizer{log: log.With("component", "Summarizer", "provider", ProviderOllama), client: c}
}

func (s *ollamaSummarizer) Provider() string { return ProviderOllama }

func (s *ollamaSummarizer) Summarize(ctx context.Context, req Request) (Result, error) {
	text, err := s.client.Generate(ctx, BuildPrompt(req))
	if err != nil {
		return Result{}, fmt.Errorf("ollama summarize: %w", err)
	}
	res := ParseResult(text)
	s.log.Debug("Summary generated", "model", s.client.Model(), "key_points", len(res.KeyPoints))
	return res, nil
}
