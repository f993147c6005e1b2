package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLevel(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return m
}

func checkFields(t *testing.T, line map[string]any, want map[string]any) {
	t.Helper()
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s = %v, want %v", k, line[k], v)
		}
	}
}

func TestComponentIsSetOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf, Component: ComponentRecurring})

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug is below the configured level, got %q", buf.String())
	}

	logger.With(FieldBudgetID, 3).WithComponent(ComponentBudget).Info("Budget copied")
	if n := bytes.Count(buf.Bytes(), []byte(`"component"`)); n != 1 {
		t.Errorf("component appears %d times, want 1", n)
	}
	checkFields(t, decodeLine(t, &buf), map[string]any{
		"msg":          "Budget copied",
		FieldComponent: ComponentBudget,
		FieldBudgetID:  float64(3),
	})
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	var observed int
	handler := Middleware(logger, func(*http.Request) string { return "req-1" })(
		AccessLog(func(*http.Request) string { return "10.0.0.1" }, func(_ *http.Request, status int, _ time.Duration) {
			observed = status
		})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})))

	req := httptest.NewRequest(http.MethodGet, "/api/recurring/9?x=1", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if observed != http.StatusNotFound {
		t.Errorf("observed status %d, want 404", observed)
	}
	checkFields(t, decodeLine(t, &buf), map[string]any{
		"level":         "WARN",
		FieldComponent:  ComponentHTTP,
		FieldRequestID:  "req-1",
		FieldPath:       "/api/recurring/9",
		FieldQuery:      "x=1",
		FieldStatusCode: float64(404),
		FieldClientIP:   "10.0.0.1",
	})
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	ctx := NewContext(context.Background(), New(Config{Format: "json", Output: &buf}))

	LogError(ctx, "Enter failed", errors.New("boom"), ComponentRecurring, OpEnter,
		Occurrence(4, 12, "2024-01-31", "-950.00", "Monthly")...)

	checkFields(t, decodeLine(t, &buf), map[string]any{
		FieldError:         "boom",
		FieldOperation:     OpEnter,
		FieldComponent:     ComponentRecurring,
		FieldTransactionID: float64(12),
		FieldFrequency:     "Monthly",
	})
}

func TestErrNilIsDropped(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: "json", Output: &buf}).Info("ok", Err(nil))
	if _, ok := decodeLine(t, &buf)[FieldError]; ok {
		t.Error("nil error should not be logged")
	}
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil {
		t.Fatal("FromContext returned nil")
	}
	if l.Component() != ComponentApp {
		t.Errorf("Component() = %q, want %q", l.Component(), ComponentApp)
	}
}
