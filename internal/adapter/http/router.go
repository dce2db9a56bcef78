package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/casacambio/cashledger/internal/adapter/http/handler"
	"github.com/casacambio/cashledger/internal/adapter/http/middleware"
	"github.com/casacambio/cashledger/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Logger                zerolog.Logger
	Metrics               *metrics.Metrics
	MetricsHandler        http.Handler
	HealthHandler         *handler.HealthHandler
	AccountHandler        *handler.AccountHandler
	BalanceHandler        *handler.BalanceHandler
	MovementHandler       *handler.MovementHandler
	TransferHandler       *handler.TransferHandler
	OpeningBalanceHandler *handler.OpeningBalanceHandler
	AuditHandler          *handler.AuditHandler
	ReconciliationHandler *handler.ReconciliationHandler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/currencies", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.CreateCurrency)
			r.Get("/", cfg.AccountHandler.ListCurrencies)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)

			r.Route("/{account}", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.Get)
				r.Post("/reconcile", cfg.ReconciliationHandler.ReconcileAccount)
				r.Get("/balances", cfg.BalanceHandler.List)

				r.Route("/balances/{currency}", func(r chi.Router) {
					r.Get("/", cfg.BalanceHandler.Get)
					r.Get("/movements", cfg.BalanceHandler.Movements)
					r.Get("/chain", cfg.AuditHandler.Chain)
					r.Get("/sign-audit", cfg.AuditHandler.Signs)
					r.Get("/true-balance", cfg.ReconciliationHandler.TrueBalance)
					r.Get("/funds-check", cfg.MovementHandler.FundsCheck)
					r.Get("/opening-balance", cfg.OpeningBalanceHandler.Active)
					r.Post("/reconcile", cfg.ReconciliationHandler.Reconcile)
				})
			})
		})

		r.Post("/movements", cfg.MovementHandler.Post)
		r.Get("/movements/{id}", cfg.BalanceHandler.GetMovement)

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransferHandler.Create)
			r.Get("/{id}", cfg.TransferHandler.Get)
			r.Post("/{id}/cancel", cfg.TransferHandler.Cancel)
		})

		r.Post("/opening-balances", cfg.OpeningBalanceHandler.Seed)
		r.Post("/reconcile", cfg.ReconciliationHandler.ReconcileSystem)
	})

	return r
}
