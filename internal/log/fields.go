package log

import (
	"log/slog"
	"net/http"
	"time"
)

// Attribute keys shared across packages so lines can be grepped and indexed
// consistently.
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldUserAgent  = "user_agent"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"

	FieldRecurringID   = "recurring_id"
	FieldTransactionID = "transaction_id"
	FieldFrequency     = "frequency"
	FieldDate          = "date"
	FieldAmount        = "amount"
	FieldBudgetID      = "budget_id"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentRecurring = "recurring"
	ComponentBudget    = "budget"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpEnter    = "enter"
	OpSkip     = "skip"
	OpProcess  = "process"
	OpShutdown = "shutdown"
)

// Err is the error attribute; a nil error yields an empty attr slog drops.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(FieldError, err.Error())
}

// Occurrence identifies one entered occurrence of a recurring template.
func Occurrence(recurringID, transactionID int64, date, amount, frequency string) []any {
	return []any{
		slog.Int64(FieldRecurringID, recurringID),
		slog.Int64(FieldTransactionID, transactionID),
		slog.String(FieldDate, date),
		slog.String(FieldAmount, amount),
		slog.String(FieldFrequency, frequency),
	}
}

func requestAttrs(r *http.Request, status int, elapsed time.Duration, clientIP string) []any {
	attrs := []any{
		slog.String(FieldComponent, ComponentHTTP),
		slog.String(FieldMethod, r.Method),
		slog.String(FieldPath, r.URL.Path),
		slog.Int(FieldStatusCode, status),
		slog.Int64(FieldDuration, elapsed.Milliseconds()),
		slog.String(FieldClientIP, clientIP),
	}
	if q := r.URL.RawQuery; q != "" {
		attrs = append(attrs, slog.String(FieldQuery, q))
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, slog.String(FieldUserAgent, ua))
	}
	return attrs
}
