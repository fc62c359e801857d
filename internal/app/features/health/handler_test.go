package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/linguashift/internal/app/features/health"
	"github.com/dalemusser/linguashift/internal/testutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Detector string `json:"detector"`
	Rewrite  string `json:"rewrite"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), nil, "heuristic", false, zap.NewNop())

	rec, body := serve(t, h)
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Status != "ok" || body.Database != "connected" {
		t.Errorf("status/database: got %q/%q", body.Status, body.Database)
	}
	if body.Cache != "disabled" || body.Detector != "heuristic" || body.Rewrite != "disabled" {
		t.Errorf("cache/detector/rewrite: got %q/%q/%q", body.Cache, body.Detector, body.Rewrite)
	}
}

func TestServe_Cache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := health.NewHandler(db.Client(), rdb, "remote", true, zap.NewNop())

	rec, body := serve(t, h)
	if rec.Code != http.StatusOK || body.Status != "ok" || body.Cache != "connected" || body.Rewrite != "enabled" {
		t.Errorf("healthy cache: code=%d body=%+v", rec.Code, body)
	}

	mr.Close()
	rec, body = serve(t, h)
	if rec.Code != http.StatusOK {
		t.Errorf("cache outage should not fail health: got %d", rec.Code)
	}
	if body.Status != "degraded" || body.Cache != "disconnected" {
		t.Errorf("cache outage: body=%+v", body)
	}
}
