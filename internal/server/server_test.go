package server

import (
	"crypto/ed25519"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jforjo/IsleofDucks-sub001/internal/config"
	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"

	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.GuildID = "guild1"
	cfg.ServiceSecret = "s3cret"

	dispatcher := interactions.NewDispatcher(pub, interactions.NewRegistry(), nil, zap.NewNop())
	return New(cfg, zap.NewNop(), dispatcher, nil)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestInteractionsEndpointWired(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/interactions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected dispatcher info response, got %d", rec.Code)
	}
}

func TestReportRequiresBearerSecret(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/report", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 on POST, got %d", rec.Code)
	}
}

func TestReportRejectsAllWhenSecretUnset(t *testing.T) {
	s := newTestServer(t)
	s.cfg.ServiceSecret = ""

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with unset secret, got %d", rec.Code)
	}
}
