// Package http exposes the budgetwatch JSON API consumed by the mobile
// client.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"budgetwatch/internal/cache"
	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
)

// ExpenseAPI is the expense slice of the service layer.
type ExpenseAPI interface {
	RecordExpenseAndAlert(ctx context.Context, e core.Expense) (core.Expense, *core.Notification, error)
	PrecheckExpense(ctx context.Context, ownerID string, candidate core.Money) (core.GateResult, error)
	DeleteExpense(ctx context.Context, id, ownerID string) error
	ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error)
	MonthSummary(ctx context.Context, ownerID string, year, month int) (core.MonthSummary, error)
}

// BudgetAPI is the budget slice of the service layer.
type BudgetAPI interface {
	Upsert(ctx context.Context, b core.Budget) error
	Activate(ctx context.Context, period string, btype core.BudgetType) error
	Active(ctx context.Context) (*core.Budget, error)
	List(ctx context.Context) ([]core.Budget, error)
	Delete(ctx context.Context, period string, btype core.BudgetType) error
}

// NotificationAPI is the notification slice of the service layer.
type NotificationAPI interface {
	List(ctx context.Context) ([]core.Notification, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	UnreadCount(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

type Server struct {
	http.Server

	expenses      ExpenseAPI
	budgets       BudgetAPI
	notifications NotificationAPI

	statsCache *cache.TTL[core.MonthSummary]
}

// Options tunes server construction; zero values get sane defaults.
type Options struct {
	StatsCacheSize int
	StatsCacheTTL  time.Duration
}

func NewServer(addr string, expenses ExpenseAPI, budgets BudgetAPI, notifications NotificationAPI, opts Options) *Server {
	if opts.StatsCacheSize <= 0 {
		opts.StatsCacheSize = 64
	}
	if opts.StatsCacheTTL <= 0 {
		opts.StatsCacheTTL = 30 * time.Second
	}

	s := &Server{
		expenses:      expenses,
		budgets:       budgets,
		notifications: notifications,
		statsCache:    cache.NewTTL[core.MonthSummary](opts.StatsCacheSize, opts.StatsCacheTTL),
	}

	s.Addr = addr
	s.Handler = s.routes()
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 10 * time.Second
	s.IdleTimeout = 60 * time.Second
	s.MaxHeaderBytes = 1 << 16

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Post("/precheck", s.handlePrecheckExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Get("/statistics", s.handleStatistics)

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Put("/", s.handleUpsertBudget)
			r.Get("/active", s.handleActiveBudget)
			r.Post("/active", s.handleActivateBudget)
			r.Delete("/{period}/{type}", s.handleDeleteBudget)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Delete("/", s.handleClearNotifications)
			r.Get("/unread-count", s.handleUnreadCount)
			r.Post("/{id}/read", s.handleMarkNotificationRead)
			r.Delete("/{id}", s.handleDeleteNotification)
		})
	})

	return r
}

// StartCacheJanitor evicts expired statistics entries until ctx is done.
func (s *Server) StartCacheJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.statsCache.CleanExpired()
		}
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.InfoContext(r.Context(), "HTTP request",
			log.FieldComponent, log.ComponentHTTP,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			log.FieldRequestID, middleware.GetReqID(r.Context()))
	})
}
