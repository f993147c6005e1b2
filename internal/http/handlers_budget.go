package http

import (
	"net/http"

	"mmex/internal/core"
	applog "mmex/internal/log"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.deps.Budgets.List(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := s.deps.Budgets.Create(r.Context(), req.Year, req.Month)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleRenameBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := s.deps.Budgets.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Budgets.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCopyBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := s.deps.Budgets.Copy(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleBudgetEntries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.deps.Budgets.Entries(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	if entries == nil {
		entries = []core.BudgetEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSetBudgetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	freq, err := core.ParseBudgetFrequency(req.Frequency)
	if err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	entry, err := s.deps.Budgets.SetEntry(r.Context(), core.BudgetEntry{
		BudgetID:      id,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Frequency:     freq,
		Amount:        req.Amount,
	})
	if err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleBudgetPerformance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	perf, err := s.deps.Budgets.Performance(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, perf)
}

func (s *Server) handleDeleteBudgetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entryID, err := pathID(r, "entryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Budgets.DeleteEntry(r.Context(), id, entryID); err != nil {
		writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
