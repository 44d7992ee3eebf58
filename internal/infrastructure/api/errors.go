package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/kirillkom/resumind-client/internal/core/domain"
	"github.com/kirillkom/resumind-client/internal/infrastructure/resilience"
)

const maxErrorBody = 2048

// StatusError is a non-2xx response. It unwraps to ErrUnauthorized for 401
// and to ErrServer otherwise.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Detail     string
	Body       string
}

func newStatusError(operation string, resp *Response) *StatusError {
	body := resp.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	status := http.StatusText(resp.StatusCode)
	if status == "" {
		status = "status"
	}
	return &StatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     fmt.Sprintf("%d %s", resp.StatusCode, status),
		Detail:     extractDetail(resp.Body),
		Body:       strings.TrimSpace(string(body)),
	}
}

func (e *StatusError) Error() string {
	if e == nil {
		return "api status error"
	}
	switch {
	case e.Detail != "":
		return fmt.Sprintf("api %s status: %s: %s", e.Operation, e.Status, e.Detail)
	case e.Body != "":
		return fmt.Sprintf("api %s status: %s: %s", e.Operation, e.Status, e.Body)
	default:
		return fmt.Sprintf("api %s status: %s", e.Operation, e.Status)
	}
}

func (e *StatusError) Unwrap() []error {
	if e == nil {
		return nil
	}
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return []error{domain.ErrUnauthorized}
	case e.StatusCode == http.StatusNotFound:
		return []error{domain.ErrServer, domain.ErrNotFound}
	default:
		return []error{domain.ErrServer}
	}
}

func (e *StatusError) ServerDetail() string {
	if e == nil {
		return ""
	}
	return e.Detail
}

// extractDetail pulls a human readable message out of an error payload:
// {"error": "..."}, {"detail": "..."} or a field error map such as
// {"username": ["already taken"]}.
func extractDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "detail", "message"} {
		if msg, ok := payload[key].(string); ok && strings.TrimSpace(msg) != "" {
			return strings.TrimSpace(msg)
		}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		msgs := fieldMessages(payload[key])
		if len(msgs) == 0 {
			continue
		}
		if key == "non_field_errors" {
			parts = append(parts, strings.Join(msgs, " "))
			continue
		}
		parts = append(parts, key+": "+strings.Join(msgs, " "))
	}
	return strings.Join(parts, "; ")
}

func fieldMessages(value any) []string {
	switch v := value.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

// classifierFor only retries idempotent requests. The breaker counts network
// failures and 5xx responses.
func classifierFor(method string) resilience.ErrorClassifier {
	idempotent := method == http.MethodGet || method == http.MethodHead
	return func(err error) resilience.ErrorClassification {
		if err == nil {
			return resilience.ErrorClassification{}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return resilience.ErrorClassification{}
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return resilience.ErrorClassification{
				Retryable:     idempotent && isRetryableHTTPStatus(statusErr.StatusCode),
				RecordFailure: statusErr.StatusCode >= http.StatusInternalServerError,
			}
		}
		if domain.IsKind(err, domain.ErrNetwork) {
			return resilience.ErrorClassification{
				Retryable:     idempotent,
				RecordFailure: true,
			}
		}
		return resilience.ErrorClassification{}
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if resilience.IsCircuitOpen(err) && !domain.IsKind(err, domain.ErrTemporary) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
