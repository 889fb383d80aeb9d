package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

func setAppEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "app.db"))
	t.Setenv("OBJECT_STORAGE_MODE", "local")
	t.Setenv("LOCAL_STORAGE_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DOCUMENTAI_PROCESSOR_ID", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("JWT_SECRET_KEY", "app-test")
}

func TestNewWiresLocalApp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setAppEnv(t)

	a, err := New(context.Background(), logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)

	if a.Clients.Model != nil || a.Clients.OCR != nil {
		t.Fatalf("optional clients should be nil without configuration")
	}

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proposals", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestNewRequiresJWTSecret(t *testing.T) {
	setAppEnv(t)
	t.Setenv("JWT_SECRET_KEY", "")
	if _, err := New(context.Background(), logger.Nop()); err == nil {
		t.Fatalf("expected error without JWT_SECRET_KEY")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "RETRIEVE_TOP_K", "BULK_GENERATE_WORKERS", "GENERATE_MAX_TOKENS", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.Port != "8080" || cfg.RetrieveTopK != 5 || cfg.BulkGenerateWorkers != 1 || cfg.GenerateMaxTokens != 1000 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("expected no configured origins, got %v", cfg.AllowedOrigins)
	}

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	if got := LoadConfig().AllowedOrigins; len(got) != 2 || got[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", got)
	}
}
