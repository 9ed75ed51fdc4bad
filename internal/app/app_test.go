package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWiresSQLiteApp(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_MODE", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "newsboy.db"))
	t.Setenv("JWT_SECRET_KEY", "app-test")
	t.Setenv("AI_PROVIDER", "ollama")

	a, err := New("")
	require.NoError(t, err)
	t.Cleanup(a.Close)
	a.Start()

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := []byte(`{"username":"reader","email":"reader@example.com","password":"Digest#2024","password_confirm":"Digest#2024"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestNewRejectsMissingSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_MODE", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "newsboy.db"))
	t.Setenv("AI_PROVIDER", "ollama")

	_, err := New("")
	assert.Error(t, err)
}
