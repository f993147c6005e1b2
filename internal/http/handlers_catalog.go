package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mmex/internal/core"
	applog "mmex/internal/log"
	"mmex/internal/storage"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	rng, ok := s.reportRange(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	account, err := queryInt(r, "account_id", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	txs, err := s.deps.Transactions.List(r.Context(), storage.TransactionFilter{
		Range:     rng,
		AccountID: int64(account),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := req.toCore()
	if err != nil {
		s.writeInputError(w, r, err)
		return
	}
	created, err := s.deps.Transactions.Create(r.Context(), tx)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionView(created))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Transactions.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Catalog.Accounts(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var status core.AccountStatus
	if strings.TrimSpace(req.Status) != "" {
		var err error
		if status, err = parseAccountStatus(req.Status); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	a, err := s.deps.Catalog.CreateAccount(r.Context(), core.Account{
		Name:           sanitizeInput(req.Name),
		Type:           sanitizeInput(req.Type),
		Status:         status,
		Favorite:       req.Favorite,
		InitialBalance: req.InitialBalance,
		CurrencyID:     req.CurrencyID,
	})
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListPayees(w http.ResponseWriter, r *http.Request) {
	payees, err := s.deps.Catalog.Payees(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	if payees == nil {
		payees = []core.Payee{}
	}
	writeJSON(w, http.StatusOK, payees)
}

func (s *Server) handleCreatePayee(w http.ResponseWriter, r *http.Request) {
	var req core.Payee
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = 0
	req.Name = sanitizeInput(req.Name)
	p, err := s.deps.Catalog.CreatePayee(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Catalog.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.deps.Catalog.CreateCategory(r.Context(), sanitizeInput(req.Name), req.ParentID)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name, "parent_id": req.ParentID})
}

func parseAccountStatus(s string) (core.AccountStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return core.AccountOpen, nil
	case "closed":
		return core.AccountClosed, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidStatus, s)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := s.deps.Catalog.Account(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleSetAccountStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := parseAccountStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.deps.Catalog.SetAccountStatus(r.Context(), id, status); err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	a, err := s.deps.Catalog.Account(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleGetPayee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.deps.Catalog.Payee(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Catalog.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.deps.Catalog.Currencies(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	if currencies == nil {
		currencies = []core.Currency{}
	}
	writeJSON(w, http.StatusOK, currencies)
}

func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req core.Currency
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = 0
	req.Name = sanitizeInput(req.Name)
	req.Symbol = sanitizeInput(req.Symbol)
	c, err := s.deps.Catalog.CreateCurrency(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Catalog.Settings(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Catalog.SetSetting(r.Context(), chi.URLParam(r, "key"), sanitizeInput(req.Value)); err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	s.handleGetSettings(w, r)
}
