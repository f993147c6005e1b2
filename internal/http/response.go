// Package http exposes the JSON API.
//
// This file implements a small builder for JSON responses and the mapping
// from domain errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"mmex/internal/core"
	applog "mmex/internal/log"
)

// Response collects status, headers and body before writing them.
type Response struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewResponse() *Response {
	return &Response{statusCode: http.StatusOK, headers: map[string]string{}}
}

func (b *Response) Status(code int) *Response {
	b.statusCode = code
	return b
}

func (b *Response) Header(name, value string) *Response {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the body.
func (b *Response) JSON(v any) *Response {
	b.body = v
	return b
}

func (b *Response) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse builds the JSON error envelope.
func ErrorResponse(statusCode int, message string) *Response {
	return NewResponse().
		Status(statusCode).
		JSON(errorBody{Error: errorDetail{Status: statusCode, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewResponse().Status(status).JSON(v).Write(w)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	ErrorResponse(status, msg).Write(w)
}

var validationErrors = []error{
	core.ErrInvalidRepeatCode,
	core.ErrUnsupportedRecurrence,
	core.ErrInvalidPeriod,
	core.ErrInvalidDateRange,
	core.ErrInvalidAmount,
	core.ErrInvalidStatus,
	core.ErrInvalidTransaction,
	core.ErrInvalidBudget,
	core.ErrEmptyName,
	core.ErrInvalidSetting,
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict), errors.Is(err, core.ErrDuplicate):
		return http.StatusConflict
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError answers with the status matching err. Internal errors
// are logged and their details withheld from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		applog.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, operation)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
