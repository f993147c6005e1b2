package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type ctxKey struct{}

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, falling back to the process logger
// installed by SetDefault and then to slog's default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	if logger := process.Load(); logger != nil {
		return logger
	}
	return wrap(slog.Default(), ComponentApp)
}

// Middleware stores logger in the request context, tagged with the request
// id when requestID returns one.
func Middleware(logger *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if requestID != nil {
				if id := requestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), l)))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLog writes one line per request after the handler returns: info for
// success, warn for 4xx, error for 5xx. observe, when set, also receives the
// status and duration.
func AccessLog(clientIP func(*http.Request) string, observe func(r *http.Request, status int, d time.Duration)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			level := slog.LevelInfo
			switch {
			case sw.status >= 500:
				level = slog.LevelError
			case sw.status >= 400:
				level = slog.LevelWarn
			}
			FromContext(r.Context()).base.Log(r.Context(), level, "HTTP request completed",
				requestAttrs(r, sw.status, elapsed, clientIP(r))...)
			if observe != nil {
				observe(r, sw.status, elapsed)
			}
		})
	}
}

// LogError logs err with its component and operation plus any extra attrs.
func LogError(ctx context.Context, msg string, err error, component, operation string, attrs ...any) {
	args := append([]any{
		slog.String(FieldComponent, component),
		slog.String(FieldOperation, operation),
		Err(err),
	}, attrs...)
	FromContext(ctx).base.ErrorContext(ctx, msg, args...)
}
