package http

import (
	"net/http"

	"mmex/internal/core"
	applog "mmex/internal/log"
	"mmex/internal/services"
)

// reportRange resolves ?period=&from=&to= against the configured default
// period.
func (s *Server) reportRange(w http.ResponseWriter, r *http.Request) (core.DateRange, bool) {
	q := r.URL.Query()
	rng, err := s.deps.Reports.ResolveRange(q.Get("period"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return core.DateRange{}, false
	}
	return rng, true
}

func (s *Server) handleReportPayees(w http.ResponseWriter, r *http.Request) {
	rng, ok := s.reportRange(w, r)
	if !ok {
		return
	}
	report, err := s.deps.Reports.ByPayee(r.Context(), rng)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportCategories(w http.ResponseWriter, r *http.Request) {
	rng, ok := s.reportRange(w, r)
	if !ok {
		return
	}
	report, err := s.deps.Reports.ByCategory(r.Context(), rng)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportIncomeExpense(w http.ResponseWriter, r *http.Request) {
	rng, ok := s.reportRange(w, r)
	if !ok {
		return
	}
	months, err := s.deps.Reports.IncomeExpense(r.Context(), rng)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	from, to := "", ""
	if !rng.IsAll() {
		from, to = rng.Bounds()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":   services.ReportIncomeExpense,
		"from":   from,
		"to":     to,
		"months": months,
	})
}

func (s *Server) handleReportOverview(w http.ResponseWriter, r *http.Request) {
	rng, ok := s.reportRange(w, r)
	if !ok {
		return
	}
	ov, err := s.deps.Reports.Overview(r.Context(), rng)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// handleSummary applies the account visibility preferences; ?open= and
// ?favorites= override them per request.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter := services.SummaryFilter{
		OnlyOpen:      s.deps.Prefs.OnlyOpenAccounts,
		OnlyFavorites: s.deps.Prefs.OnlyFavoriteAccounts,
	}
	open, err := queryBool(r, "open")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if open != nil {
		filter.OnlyOpen = *open
	}
	favorites, err := queryBool(r, "favorites")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if favorites != nil {
		filter.OnlyFavorites = *favorites
	}

	sum, err := s.deps.Summary.Summary(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
