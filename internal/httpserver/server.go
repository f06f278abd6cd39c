package httpserver

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"learn-market/internal/config"
	"learn-market/internal/handlers"
	"learn-market/internal/logging"
	"learn-market/internal/middleware"
)

type Server struct {
	Serv *http.Server
}

func New(cfg config.Config, handler *handlers.Server) (*Server, error) {
	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware(logging.Logg))

	r.Route("/api", func(r chi.Router) {
		r.Post("/user/register", handler.RegisterAccount)
		r.Post("/user/login", handler.LoginAccount)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(&cfg))

			r.Get("/courses/{id}", handler.GetCourse)

			r.Post("/orders", handler.CreateOrder)
			r.Get("/orders", handler.GetMyOrders)
			r.Get("/orders/{id}", handler.GetOrder)
			r.Delete("/orders/{id}", handler.CancelOrder)

			r.Get("/referrals/summary", handler.GetReferralSummary)
			r.Get("/referrals/leaderboard", handler.GetReferralLeaderboard)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireOperator)

				r.Post("/admin/courses", handler.CreateCourse)
				r.Get("/admin/orders", handler.GetAllOrders)
				r.Get("/admin/earnings", handler.GetEarnings)
				r.Post("/admin/earnings/{id}/approve", handler.ApproveEarning)
				r.Get("/admin/payouts/weekly", handler.GetWeeklyPayouts)
				r.Post("/admin/payouts/{referrerID}/approve", handler.ApprovePayoutForReferrer)
				r.Get("/admin/referrals/network", handler.GetReferralNetwork)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{Serv: serv}, nil
}

func (s *Server) Start() {
	go func() {
		logging.Logg.Info("Starting server", "address", s.Serv.Addr)
		if err := s.Serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logg.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Logg.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.Serv.Shutdown(shutdownCtx); err != nil {
		logging.Logg.Error("Server shutdown error", "error", err)
		return err
	}

	logging.Logg.Info("Server stopped")
	return nil
}
