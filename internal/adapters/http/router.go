package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kirillkom/resumind-client/internal/core/domain"
	"github.com/kirillkom/resumind-client/internal/core/usecase"
)

// AuthStatusSource reports whether the client currently holds credentials.
type AuthStatusSource interface {
	Status() domain.AuthStatus
}

// WorkflowSource exposes the current upload workflow view.
type WorkflowSource interface {
	View() usecase.WorkflowView
}

// Router serves the local admin surface: health and metrics.
type Router struct {
	auth     AuthStatusSource
	workflow WorkflowSource
	metrics  http.Handler
	logger   *zap.Logger
}

func NewRouter(auth AuthStatusSource, workflow WorkflowSource, metrics http.Handler, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		auth:     auth,
		workflow: workflow,
		metrics:  metrics,
		logger:   logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.logger, mux))
}

type healthResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	CanRefresh    bool   `json:"can_refresh"`
	AccessExpiry  string `json:"access_expiry,omitempty"`
	WorkflowState string `json:"workflow_state,omitempty"`
	Job           string `json:"job,omitempty"`
	StagedFiles   int    `json:"staged_files"`
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	resp := healthResponse{Status: "ok"}
	if rt.auth != nil {
		st := rt.auth.Status()
		resp.Authenticated = st.Authenticated
		resp.CanRefresh = st.CanRefresh
		if !st.AccessExpiry.IsZero() {
			resp.AccessExpiry = st.AccessExpiry.UTC().Format(time.RFC3339)
		}
	}
	if rt.workflow != nil {
		view := rt.workflow.View()
		resp.WorkflowState = string(view.State)
		resp.Job = view.Job
		resp.StagedFiles = view.StagedCount
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
