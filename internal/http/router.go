package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/config"
	"foodcourt-backoffice/internal/http/handlers"
	"foodcourt-backoffice/internal/middleware"
	"foodcourt-backoffice/internal/ws"
)

func NewRouter(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config, h *handlers.Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Provider callbacks authenticate by signature, not bearer token.
	r.Post("/api/payments/webhooks/{provider}", h.PaymentWebhook)

	r.Post("/api/auth/session", h.CreateSession)

	r.Group(func(r chi.Router) {
		r.Use(middleware.PrincipalAuth(db, cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))

		r.Delete("/api/auth/session", h.DeleteSession)

		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Post("/bulk/status", h.BulkTransitionOrders)
			r.Get("/{orderId}", h.GetOrder)
			r.Get("/{orderId}/receipt", h.OrderReceipt)
			r.Patch("/{orderId}/status", h.TransitionOrder)
			r.Post("/{orderId}/cancel", h.CancelOrder)
		})

		r.Route("/api/payments", func(r chi.Router) {
			r.Post("/", h.CreatePayment)
			r.Post("/cash", h.ProcessCashPayment)
			r.Post("/terminal", h.ProcessTerminalPayment)
			r.Get("/{paymentId}", h.GetPayment)
			r.Post("/{paymentId}/refund", h.RefundPayment)
		})

		r.Route("/api/employees", func(r chi.Router) {
			r.Post("/invites", h.CreateInvite)
			r.Post("/invites/consume", h.ConsumeInvite)
			r.Post("/clock-in", h.ClockIn)
			r.Post("/clock-out", h.ClockOut)
		})

		r.Route("/api/restaurants/{restaurantId}", func(r chi.Router) {
			r.Get("/orders", h.ListRestaurantOrders)
			r.Get("/payroll", h.Payroll)
			r.Get("/payouts", h.Payouts)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.CreateEmployee)
				r.Patch("/{employeeId}", h.UpdateEmployee)
				r.Delete("/{employeeId}", h.DeactivateEmployee)
				r.Post("/{employeeId}/clock-in", h.ClockIn)
				r.Post("/{employeeId}/clock-out", h.ClockOut)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", h.ListShifts)
				r.Post("/", h.ScheduleShift)
			})

			r.Route("/invites", func(r chi.Router) {
				r.Post("/", h.CreateInvite)
				r.Delete("/{inviteId}", h.RevokeInvite)
			})
		})

		r.Get("/ws/restaurants/{restaurantId}/orders", wsServer.HandleRestaurantOrders)
	})

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
