package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/binpack/internal/application"
	"github.com/eugenenazirov/binpack/internal/config"

	_ "github.com/eugenenazirov/binpack/internal/mip/native"
)

const testConfig = `
enable_request_logging: false
rate_limit:
  rps: 0
  solve_rps: 0
solver:
  backend: native
  probe:
    node_limit: 200
`

func newServerHandler(t *testing.T) http.Handler {
	t.Helper()

	for _, key := range []string{"PORT", "ITEM_SIZES", "BIN_CAPACITY", "SOLVER_BACKEND", "WORK_DIR", "WARM_START_MODE", "WARM_START_FILE", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(&config.CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	app, err := application.New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	return app.Server().Handler
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	handler := newServerHandler(t)
	jsonHeaders := map[string]string{"Content-Type": "application/json"}

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	// default 42-item instance with its warm start
	rec = performRequest(t, handler, http.MethodPost, "/api/solve", nil, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from solve, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		BinsUsed   int `json:"binsUsed"`
		LowerBound int `json:"lowerBound"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.BinsUsed != 18 || result.LowerBound != 18 {
		t.Fatalf("expected 18 bins, got %+v", result)
	}

	payload, _ := json.Marshal(map[string]any{"sizes": []int{4, 3, 2, 1}, "capacity": 5})
	rec = performRequest(t, handler, http.MethodPut, "/api/instance", payload, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from instance update, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/report", nil, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from report, got %d: %s", rec.Code, rec.Body.String())
	}
	report := rec.Body.String()
	if !strings.HasPrefix(report, "Number of constraints: 16\nNumber of variables: 20\n") {
		t.Fatalf("unexpected report header:\n%s", report)
	}
	if !strings.Contains(report, "[1 1 0 0]\n2\n") {
		t.Fatalf("expected two bins in report:\n%s", report)
	}
}
