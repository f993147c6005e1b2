package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "mmex/internal/log"
	"mmex/internal/metrics"
	"mmex/internal/middleware/ratelimit"
	"mmex/internal/middleware/security"
	"mmex/internal/middleware/trace"
	"mmex/internal/prefs"
	"mmex/internal/services"
)

// Dependencies are the services the API exposes.
type Dependencies struct {
	Recurring    *services.RecurringService
	Processor    *services.RecurringProcessor
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Reports      *services.ReportService
	Summary      *services.SummaryService
	Catalog      *services.CatalogService
	// Prefs supplies the account filters /summary applies by default.
	Prefs prefs.Prefs
	// Ready reports whether the backing store is reachable.
	Ready func(ctx context.Context) error
}

type Options struct {
	RateLimitRPM   int
	MetricsEnabled bool
	RequestTimeout time.Duration
	Logger         *applog.Logger
	TrustedProxies []string
}

type Server struct {
	http.Server
	deps    Dependencies
	opts    Options
	limiter *ratelimit.Limiter
	ips     *security.ClientIPResolver

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Dependencies, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	ips := security.NewClientIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := ips.AddTrustedProxy(strings.TrimSpace(cidr)); err != nil {
			opts.Logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, "error", err)
		}
	}

	s := &Server{
		deps:    deps,
		opts:    opts,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		ips:     ips,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown drains open connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(trace.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(applog.Middleware(s.opts.Logger, trace.FromRequest))
	r.Use(applog.AccessLog(s.ips.ClientIP, observeRequest))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
		r.Use(s.limiter.Middleware(s.ips.ClientIP, false, rateLimited))

		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", s.handleListRecurring)
			r.Post("/", s.handleCreateRecurring)
			r.Get("/due", s.handleDueRecurring)
			r.Post("/process", s.handleProcessRecurring)
			r.Get("/next-occurrence", s.handleNextOccurrence)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRecurring)
				r.Put("/", s.handleUpdateRecurring)
				r.Delete("/", s.handleDeleteRecurring)
				r.Post("/enter", s.handleEnterRecurring)
				r.Post("/skip", s.handleSkipRecurring)
				r.Get("/preview", s.handlePreviewRecurring)
			})
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", s.handleRenameBudget)
				r.Delete("/", s.handleDeleteBudget)
				r.Post("/copy", s.handleCopyBudget)
				r.Get("/entries", s.handleBudgetEntries)
				r.Put("/entries", s.handleSetBudgetEntry)
				r.Delete("/entries/{entryID}", s.handleDeleteBudgetEntry)
				r.Get("/performance", s.handleBudgetPerformance)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/payees", s.handleReportPayees)
			r.Get("/categories", s.handleReportCategories)
			r.Get("/income-expense", s.handleReportIncomeExpense)
			r.Get("/overview", s.handleReportOverview)
		})

		r.Get("/summary", s.handleSummary)

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Get("/accounts", s.handleListAccounts)
		r.Post("/accounts", s.handleCreateAccount)
		r.Get("/accounts/{id}", s.handleGetAccount)
		r.Put("/accounts/{id}/status", s.handleSetAccountStatus)
		r.Get("/payees", s.handleListPayees)
		r.Post("/payees", s.handleCreatePayee)
		r.Get("/payees/{id}", s.handleGetPayee)
		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)
		r.Delete("/categories/{id}", s.handleDeleteCategory)
		r.Get("/currencies", s.handleListCurrencies)
		r.Post("/currencies", s.handleCreateCurrency)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings/{key}", s.handleSetSetting)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// observeRequest feeds request metrics, labelled by route pattern so ids
// in paths do not explode cardinality.
func observeRequest(r *http.Request, status int, d time.Duration) {
	route := ""
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		route = rctx.RoutePattern()
	}
	metrics.ObserveHTTP(r.Method, route, status, d)
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.RateLimited.Inc()
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded", applog.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			applog.LogError(r.Context(), "Readiness check failed", err, applog.ComponentHTTP, "ready")
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
