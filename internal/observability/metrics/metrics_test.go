package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClientMetricsRecordRequest(t *testing.T) {
	m := NewClientMetrics("resumind-cli")

	m.RecordRequest("GET", "/jobs/skills/?job=Recruiter", "200", 15*time.Millisecond)
	m.RecordRequest("GET", "/jobs/skills/", "200", 10*time.Millisecond)
	m.RecordRequest("POST", "/resumes/upload/", "error", time.Second)

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/jobs/skills/", "200")); got != 2 {
		t.Fatalf("expected 2 skills requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("POST", "/resumes/upload/", "error")); got != 1 {
		t.Fatalf("expected 1 failed upload request, got %v", got)
	}
}

func TestClientMetricsRecordTokenRefresh(t *testing.T) {
	m := NewClientMetrics("resumind-cli")
	m.RecordTokenRefresh("success")
	m.RecordTokenRefresh("failure")
	m.RecordTokenRefresh("failure")

	if got := testutil.ToFloat64(m.refreshTotal.WithLabelValues("failure")); got != 2 {
		t.Fatalf("expected 2 failures, got %v", got)
	}
}

func TestWorkflowMetricsRecordUpload(t *testing.T) {
	m := NewWorkflowMetrics("resumind-cli")
	m.RecordUpload(3, time.Second, nil)
	m.RecordUpload(2, time.Second, errors.New("boom"))
	m.RecordSkillSync("stale")

	if got := testutil.ToFloat64(m.uploadFilesTotal); got != 3 {
		t.Fatalf("expected 3 uploaded files, got %v", got)
	}
	if got := testutil.ToFloat64(m.uploadTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed upload, got %v", got)
	}
	if got := testutil.ToFloat64(m.skillSyncTotal.WithLabelValues("stale")); got != 1 {
		t.Fatalf("expected 1 stale sync, got %v", got)
	}
}

func TestHandlerServesAllRegistries(t *testing.T) {
	client := NewClientMetrics("resumind-cli")
	workflow := NewWorkflowMetrics("resumind-cli")
	client.RecordTokenRefresh("success")
	workflow.RecordSkillSync("success")

	rec := httptest.NewRecorder()
	Handler(client.Gatherer(), workflow.Gatherer()).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	for _, name := range []string{"resumind_client_token_refresh_total", "resumind_workflow_skill_sync_total"} {
		if !strings.Contains(text, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}
