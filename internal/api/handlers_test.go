package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trade-advisor/internal/advisor"
	"trade-advisor/internal/auth"
	"trade-advisor/internal/capital"
	"trade-advisor/internal/events"
	"trade-advisor/internal/market"
)

func newTestServer(t *testing.T, jwtManager *auth.JWTManager) *Server {
	t.Helper()
	adv := advisor.New(advisor.DefaultConfig(), nil, zerolog.Nop())
	cfg := ServerConfig{Port: 0, Host: "127.0.0.1", AllowedOrigins: "*", ProductionMode: true}
	return NewServer(cfg, adv, nil, events.NewEventBus(), nil, jwtManager)
}

func flatBars(n int) []market.Bar {
	bars := make([]market.Bar, n)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = market.Bar{
			OpenTime: ts.Add(time.Duration(i) * time.Hour),
			Open:     100, High: 100, Low: 100, Close: 100,
			Volume: 1000,
		}
	}
	return bars
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["database"] != "disabled" {
		t.Errorf("expected database disabled without a repository, got %v", resp["database"])
	}
}

func TestAnalyzeEndpointFlatMarket(t *testing.T) {
	srv := newTestServer(t, nil)

	body := advisor.Request{Bars: flatBars(250), Capital: 10000, CurrentPrice: 100}
	w := doJSON(t, srv, http.MethodPost, "/api/analyze", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool           `json:"success"`
		Data    advisor.Result `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if got := string(resp.Data.Signal.Type); got != "NEUTRAL" {
		t.Errorf("flat market should be NEUTRAL, got %s", got)
	}
	if resp.Data.Position.PositionSizeUSD != 0 {
		t.Errorf("neutral signal should not be sized, got %v", resp.Data.Position.PositionSizeUSD)
	}
}

func TestAnalyzeRejectsInvalidBody(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPortfolioRiskEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	body := portfolioRiskRequest{
		Capital: 10000,
		Plans: []capital.PositionPlan{
			{PositionSizeUSD: 1000, StopLossUSD: 300},
			{PositionSizeUSD: 800, StopLossUSD: 150},
		},
	}
	w := doJSON(t, srv, http.MethodPost, "/api/portfolio/risk", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data capital.PortfolioRiskSummary `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.TotalRiskUSD != 450 {
		t.Errorf("expected total risk 450, got %v", resp.Data.TotalRiskUSD)
	}
	if resp.Data.CeilingExceeded {
		t.Error("4.5%% of capital should not exceed the ceiling")
	}
}

func TestSignalEndpointsRequireStorage(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/api/accuracy", "/api/signals/recent"} {
		w := doJSON(t, srv, http.MethodGet, path, nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503 without a repository, got %d", path, w.Code)
		}
	}
}

func TestAuthMiddlewareProtectsAPI(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", 15*time.Minute)
	srv := newTestServer(t, manager)

	body := advisor.Request{Bars: flatBars(30)}
	w := doJSON(t, srv, http.MethodPost, "/api/analyze", body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	token, err := manager.GenerateAccessToken(auth.UserClaims{UserID: "u-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d: %s", rec.Code, rec.Body.String())
	}
}
