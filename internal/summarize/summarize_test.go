package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/newsboy-backend/internal/pkg/httpx"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/platform/ollama"
	"github.com/yungbote/newsboy-backend/internal/platform/openai"
)

const markedAnswer = "## 摘要\n  A short digest.  \n\n## 关键要点\n- first\n\n-  second\n--- third\n"

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

func TestParseResult(t *testing.T) {
	t.Run("both markers", func(t *testing.T) {
		res := ParseResult(markedAnswer)
		assert.Equal(t, "A short digest.", res.Summary)
		assert.Equal(t, []string{"first", "second", "third"}, res.KeyPoints)
	})

	t.Run("missing key points marker", func(t *testing.T) {
		raw := "## 摘要\nonly a summary"
		res := ParseResult(raw)
		assert.Equal(t, raw, res.Summary)
		assert.Empty(t, res.KeyPoints)
	})

	t.Run("no markers", func(t *testing.T) {
		res := ParseResult("plain answer")
		assert.Equal(t, "plain answer", res.Summary)
		assert.NotNil(t, res.KeyPoints)
		assert.Empty(t, res.KeyPoints)
	})

	t.Run("text before first marker is ignored", func(t *testing.T) {
		res := ParseResult("preamble\n## 摘要\nbody\n## 关键要点\n- a")
		assert.Equal(t, "body", res.Summary)
		assert.Equal(t, []string{"a"}, res.KeyPoints)
	})
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Request{Content: "hello world"})
	assert.Contains(t, p, "不超过2000字符")
	assert.Contains(t, p, "摘要格式：markdown")
	assert.Contains(t, p, "特别关注点：无特别要求")
	assert.Contains(t, p, "hello world")
	assert.Contains(t, p, SummaryMarker)
	assert.Contains(t, p, KeyPointsMarker)

	p = BuildPrompt(Request{Content: "x", MaxLength: 300, Format: "text", FocusPoints: []string{"go", "rust"}})
	assert.Contains(t, p, "不超过300字符")
	assert.Contains(t, p, "摘要格式：text")
	assert.Contains(t, p, "特别关注点：go, rust")
}

func TestOpenAISummarizer(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": markedAnswer}}},
		})
	}))
	defer srv.Close()

	log := testLogger(t)
	c, err := openai.NewClient(log, openai.Config{APIKey: "sk-test", BaseURL: srv.URL, Temperature: 0.3})
	require.NoError(t, err)

	res, err := NewOpenAI(log, c).Summarize(context.Background(), Request{Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "A short digest.", res.Summary)
	assert.Len(t, res.KeyPoints, 3)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, openai.DefaultModel, got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, SystemPrompt, got.Messages[0].Content)
	assert.True(t, strings.Contains(got.Messages[1].Content, "body"))
}

func TestOpenAISummarizerErrors(t *testing.T) {
	log := testLogger(t)

	t.Run("non-2xx carries status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()
		c, err := openai.NewClient(log, openai.Config{APIKey: "k", BaseURL: srv.URL})
		require.NoError(t, err)
		_, err = NewOpenAI(log, c).Summarize(context.Background(), Request{Content: "x"})
		require.Error(t, err)
		assert.Equal(t, http.StatusTooManyRequests, httpx.StatusCodeOf(err))
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()
		c, err := openai.NewClient(log, openai.Config{APIKey: "k", BaseURL: srv.URL})
		require.NoError(t, err)
		_, err = NewOpenAI(log, c).Summarize(context.Background(), Request{Content: "x"})
		assert.ErrorIs(t, err, openai.ErrEmptyChoices)
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()
		c, err := openai.NewClient(log, openai.Config{APIKey: "k", BaseURL: srv.URL})
		require.NoError(t, err)
		_, err = NewOpenAI(log, c).Summarize(context.Background(), Request{Content: "x"})
		assert.Error(t, err)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := openai.NewClient(log, openai.Config{})
		assert.Error(t, err)
	})
}

func TestOllamaSummarizer(t *testing.T) {
	var got struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
		Stream *bool  `json:"stream"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "no markers here"})
	}))
	defer srv.Close()

	log := testLogger(t)
	s := NewOllama(log, ollama.NewClient(log, ollama.Config{URL: srv.URL}))
	res, err := s.Summarize(context.Background(), Request{Content: "local"})
	require.NoError(t, err)
	assert.Equal(t, "no markers here", res.Summary)
	assert.Empty(t, res.KeyPoints)

	assert.Equal(t, ollama.DefaultModel, got.Model)
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	assert.Contains(t, got.Prompt, "local")
}

func TestNewSelectsProvider(t *testing.T) {
	log := testLogger(t)

	s, err := New(log, Config{Provider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, s.Provider())

	s, err = New(log, Config{Provider: "openai", OpenAI: openai.Config{APIKey: "k"}})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, s.Provider())

	_, err = New(log, Config{Provider: "bard"})
	assert.Error(t, err)
}
