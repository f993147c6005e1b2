package http

import (
	"net/http"
	"strings"
	"time"

	"mmex/internal/core"
	applog "mmex/internal/log"
	"mmex/internal/services"
)

const defaultPreview = 12

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Recurring.List(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	out := make([]recurringView, 0, len(items))
	for _, it := range items {
		out = append(out, newRecurringListingView(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDueRecurring(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Recurring.Due(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	out := make([]recurringView, 0, len(items))
	for _, it := range items {
		out = append(out, newRecurringListingView(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rt, err := s.deps.Recurring.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecurringView(rt))
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rt, err := req.toCore(0)
	if err != nil {
		s.writeInputError(w, r, err)
		return
	}
	created, err := s.deps.Recurring.Create(r.Context(), rt)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/recurring/"+itoa(created.ID)).
		JSON(newRecurringView(created)).
		Write(w)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rt, err := req.toCore(id)
	if err != nil {
		s.writeInputError(w, r, err)
		return
	}
	updated, err := s.deps.Recurring.Update(r.Context(), rt)
	if err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecurringView(updated))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Recurring.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEnterRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req enterRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.deps.Recurring.Enter(r.Context(), id, services.EnterOptions{Amount: req.Amount, Date: date})
	if err != nil {
		writeServiceError(w, r, applog.OpEnter, err)
		return
	}
	writeJSON(w, http.StatusOK, newEnterView(res))
}

func (s *Server) handleSkipRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.deps.Recurring.Skip(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, applog.OpSkip, err)
		return
	}
	writeJSON(w, http.StatusOK, newEnterView(res))
}

func (s *Server) handlePreviewRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := queryInt(r, "n", defaultPreview)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "n must be a positive integer")
		return
	}
	dates, err := s.deps.Recurring.Preview(r.Context(), id, n)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "dates": formatDates(dates)})
}

func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	if s.deps.Processor == nil {
		writeError(w, http.StatusServiceUnavailable, "recurring processing is not configured")
		return
	}
	res, err := s.deps.Processor.ProcessDue(r.Context(), time.Now())
	if err != nil {
		writeServiceError(w, r, applog.OpProcess, err)
		return
	}
	writeJSON(w, http.StatusOK, newProcessView(res))
}

// handleNextOccurrence evaluates a repeat code without touching storage:
// GET /api/recurring/next-occurrence?date=2024-01-31&repeats=103
func (s *Server) handleNextOccurrence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := core.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	repeats, err := queryInt(r, "repeats", -1)
	if err != nil || strings.TrimSpace(q.Get("repeats")) == "" {
		writeError(w, http.StatusBadRequest, "repeats must be an integer")
		return
	}
	code := core.RepeatCode(repeats)
	next, err := core.NextOccurrence(date, code)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":         core.FormatDate(date),
		"repeats":      repeats,
		"frequency":    code.String(),
		"auto_execute": code.Mode().String(),
		"next":         core.FormatDate(next),
	})
}

// writeInputError answers request-conversion failures: malformed values
// are a 400, domain validation a 422.
func (s *Server) writeInputError(w http.ResponseWriter, r *http.Request, err error) {
	if badRequest(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeServiceError(w, r, applog.OpCreate, err)
}
