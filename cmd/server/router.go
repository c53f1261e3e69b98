package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/answers-api/internal/api"
	apiMiddleware "github.com/phrazzld/answers-api/internal/api/middleware"
	"github.com/phrazzld/answers-api/internal/service"
	"github.com/phrazzld/answers-api/internal/service/auth"
)

// routerDeps is everything the HTTP layer needs. Keeping it separate from
// application lets tests build a router from mocks.
type routerDeps struct {
	logger         *slog.Logger
	requestTimeout time.Duration

	jwtService    auth.JWTService
	users         service.UserService
	catalog       service.CatalogService
	votes         service.VoteService
	acceptance    service.AcceptanceService
	notifications service.NotificationService

	limiter        apiMiddleware.Limiter
	observer       apiMiddleware.HTTPObserver
	metricsHandler http.Handler
	healthCheck    func(ctx context.Context) error
}

// newRouter creates the application router with all routes and middleware.
func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(deps.logger))
	r.Use(middleware.Recoverer)
	if deps.observer != nil {
		r.Use(apiMiddleware.Metrics(deps.observer))
	}
	if deps.requestTimeout > 0 {
		r.Use(middleware.Timeout(deps.requestTimeout))
	}

	authHandler := api.NewAuthHandler(deps.users)
	questionHandler := api.NewQuestionHandler(deps.catalog)
	answerHandler := api.NewAnswerHandler(deps.votes, deps.acceptance)
	notificationHandler := api.NewNotificationHandler(deps.notifications)
	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.jwtService)

	limit := func(next http.Handler) http.Handler { return next }
	if deps.limiter != nil {
		limit = apiMiddleware.RateLimit(deps.limiter)
	}

	r.Route("/api", func(r chi.Router) {
		// Public reads
		r.Get("/questions", questionHandler.ListQuestions)
		r.Get("/questions/{id}", questionHandler.GetQuestion)
		r.Get("/answers/{id}/votes", answerHandler.GetVotes)

		// Public writes, limited per client address
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/notifications", notificationHandler.ListNotifications)

			// Authenticated writes, limited per user
			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Post("/questions", questionHandler.CreateQuestion)
				r.Post("/questions/{id}/answers", questionHandler.CreateAnswer)
				r.Post("/answers/{id}/votes", answerHandler.CastVote)
				r.Post("/answers/{id}/accept", answerHandler.AcceptAnswer)
				r.Post("/notifications/{id}/read", notificationHandler.MarkRead)
			})
		})
	})

	r.Get("/health", healthHandler(deps.healthCheck, deps.logger))
	if deps.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.metricsHandler)
	}

	return r
}

// healthHandler reports 200 when check succeeds and 503 otherwise.
// A nil check always reports healthy.
func healthHandler(check func(ctx context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, "OK"
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", "error", err)
				status, body = http.StatusServiceUnavailable, "UNAVAILABLE"
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		if _, err := w.Write([]byte(body)); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	}
}
