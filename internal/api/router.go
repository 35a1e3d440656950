package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lendledger/internal/api/handler"
	mw "lendledger/internal/api/middleware"
	"lendledger/internal/config"
	"lendledger/internal/domain/customer"
	"lendledger/internal/domain/dashboard"
	"lendledger/internal/domain/loan"
)

type Services struct {
	Customers customer.Service
	Loans     loan.Service
	Payments  loan.PaymentService
	Dashboard dashboard.Service
}

func SetupRouter(svc Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupCustomerRoutes(router, cfg, svc, logger)
	setupLoanRoutes(router, cfg, svc, logger)
	setupPaymentRoutes(router, cfg, svc, logger)
	setupDashboardRoutes(router, cfg, svc, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupCustomerRoutes(router *chi.Mux, cfg *config.Config, svc Services, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc.Customers, logger)

	router.Route("/customers", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateCustomer)
		r.Get("/", h.ListCustomers)
		r.Route("/{customerID}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.Put("/", h.UpdateCustomer)
			r.Delete("/", h.DeleteCustomer)
			r.Put("/deactivate", h.DeactivateCustomer)
			r.Put("/reactivate", h.ReactivateCustomer)
		})
	})
}

func setupLoanRoutes(router *chi.Mux, cfg *config.Config, svc Services, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc.Loans, svc.Payments, logger)

	router.Route("/loans", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateLoan)
		r.Get("/", h.ListLoans)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", h.GetLoan)
			r.Put("/", h.UpdateLoan)
			r.Post("/close", h.CloseLoan)
			r.Get("/payments", h.ListLoanPayments)
			r.Post("/payments/next", h.ScheduleNextPayment)
		})
	})
}

func setupPaymentRoutes(router *chi.Mux, cfg *config.Config, svc Services, logger *slog.Logger) {
	h := handler.NewPaymentHandler(svc.Payments, logger)

	router.Route("/payments", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreatePayment)
		r.Get("/", h.ListPayments)
		r.Route("/{paymentID}", func(r chi.Router) {
			r.Get("/", h.GetPayment)
			r.Put("/", h.UpdatePayment)
			r.Post("/record", h.RecordPayment)
		})
	})
}

func setupDashboardRoutes(router *chi.Mux, cfg *config.Config, svc Services, logger *slog.Logger) {
	h := handler.NewDashboardHandler(svc.Dashboard, logger)

	router.Route("/dashboard", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/summary", h.GetSummary)
		r.Get("/interest-by-month", h.GetInterestByMonth)
	})
}
