package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/resumind-client/internal/core/domain"
	"github.com/kirillkom/resumind-client/internal/core/usecase"
)

type authFake struct{ status domain.AuthStatus }

func (f authFake) Status() domain.AuthStatus { return f.status }

type workflowFake struct{ view usecase.WorkflowView }

func (f workflowFake) View() usecase.WorkflowView { return f.view }

func TestHealthzReportsClientState(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	router := NewRouter(
		authFake{status: domain.AuthStatus{Authenticated: true, CanRefresh: true, AccessExpiry: expiry}},
		workflowFake{view: usecase.WorkflowView{State: domain.StateJobConfirmed, Job: "Recruiter", StagedCount: 2}},
		nil,
		nil,
	)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id header")
	}

	var body healthResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if !body.Authenticated || body.Job != "Recruiter" || body.StagedFiles != 2 {
		t.Fatalf("unexpected health body: %+v", body)
	}
	if body.WorkflowState != string(domain.StateJobConfirmed) {
		t.Fatalf("unexpected workflow state %q", body.WorkflowState)
	}
	if body.AccessExpiry != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected access expiry %q", body.AccessExpiry)
	}
}

func TestHealthzRejectsNonGet(t *testing.T) {
	router := NewRouter(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := NewRouter(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)
	if got := res.Header().Get(requestIDHeader); got != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestMetricsEndpointIsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "resumind_client_requests_total 1\n")
	})
	router := NewRouter(nil, nil, metrics, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	res := httptest.NewRecorder()
	router.Handler().ServeHTTP(res, req)
	if !strings.Contains(res.Body.String(), "resumind_client_requests_total") {
		t.Fatalf("expected metrics body, got %q", res.Body.String())
	}
}
