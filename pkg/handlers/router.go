package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/instapay/payment-core/pkg/events"
	appmw "github.com/instapay/payment-core/pkg/middleware"
)

// Service is the full surface the router wires up. *auth.Service satisfies it.
type Service interface {
	AuthService
	PaymentService
}

// NewRouter mounts the API on a chi router. Everything under /v1 except login
// and register requires a bearer token matching the active session; every
// authorized request counts as user activity for the inactivity monitor.
func NewRouter(svc Service, broadcaster *events.Broadcaster, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	authHandler := NewAuthHandler(svc)
	paymentsHandler := NewPaymentsHandler(svc)
	streamHandler := NewStreamHandler(broadcaster, logger)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(appmw.NewStructuredLogger(logger))
	router.Use(chimw.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(requireSession(svc))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)
			r.Patch("/auth/profile", authHandler.UpdateProfile)
			r.Post("/auth/password", authHandler.ChangePassword)

			r.Get("/account/balance", paymentsHandler.GetBalance)
			r.Get("/transactions", paymentsHandler.ListTransactions)
			r.Post("/transactions/send", paymentsHandler.SendMoney)
			r.Post("/transactions/withdraw", paymentsHandler.Withdraw)

			r.Post("/enquiries", paymentsHandler.SubmitEnquiry)
			r.Get("/enquiries", paymentsHandler.ListEnquiries)

			r.Get("/events", streamHandler.Stream)
		})
	})

	return router
}

// requireSession rejects requests whose bearer token does not match the
// active session, and reports accepted requests as user activity.
func requireSession(auth AuthService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "Missing bearer token"})
				return
			}
			if err := auth.Authorize(token); err != nil {
				respondError(w, err)
				return
			}
			auth.Touch()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
