package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fwsm/internal/app/features/health"
	"github.com/dalemusser/fwsm/internal/app/system/querycache"
	"github.com/dalemusser/fwsm/internal/testutil"
	"go.uber.org/zap"
)

type response struct {
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
	Cache    *struct {
		Entries int `json:"entries"`
	} `json:"cache"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func TestServe_BackendReachable(t *testing.T) {
	b := testutil.NewBackend(t)
	h := health.NewHandler(b.Client(), nil, querycache.New(querycache.Config{}), zap.NewNop())

	rec, resp := serve(t, h)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp.Status != "ok" || resp.Backend != "reachable" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Database != "not configured" {
		t.Errorf("database: got %q, want %q", resp.Database, "not configured")
	}
	if resp.Cache == nil {
		t.Error("expected cache stats")
	}
}

func TestServe_BackendDown(t *testing.T) {
	b := testutil.NewBackend(t)
	client := b.Client()
	b.Close()
	h := health.NewHandler(client, nil, nil, zap.NewNop())

	rec, resp := serve(t, h)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Status != "error" || resp.Backend != "unreachable" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	b := testutil.NewBackend(t)
	h := health.NewHandler(b.Client(), db.Client(), nil, zap.NewNop())

	rec, resp := serve(t, h)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp.Database != "connected" {
		t.Errorf("database: got %q, want %q", resp.Database, "connected")
	}
}
