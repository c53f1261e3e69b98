package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/answers-api/internal/config"
	"github.com/phrazzld/answers-api/internal/platform/metrics"
	"github.com/phrazzld/answers-api/internal/platform/postgres"
	"github.com/phrazzld/answers-api/internal/platform/ratelimit"
	"github.com/phrazzld/answers-api/internal/service"
	"github.com/phrazzld/answers-api/internal/service/auth"
	"github.com/phrazzld/answers-api/internal/store"
	"github.com/phrazzld/answers-api/internal/task"
	"github.com/prometheus/client_golang/prometheus"
)

// application holds the dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	limiter      ratelimit.Limiter
	closeLimiter func() error

	jwtService    auth.JWTService
	users         service.UserService
	catalog       service.CatalogService
	votes         service.VoteService
	acceptance    service.AcceptanceService
	notifications service.NotificationService

	taskRunner *task.TaskRunner
}

// newApplication connects to the database and wires every component.
// On success the task runner is started, which also queues unfinished
// notification tasks from a previous run.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	app := &application{
		config:       cfg,
		logger:       logger,
		db:           db,
		closeLimiter: func() error { return nil },
	}

	if err := app.wire(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	return app, nil
}

func (app *application) wire(ctx context.Context) error {
	cfg := app.config

	app.registry = prometheus.NewRegistry()
	app.metrics = metrics.New(app.registry)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create JWT service: %w", err)
	}
	app.jwtService = jwtService

	userStore := postgres.NewPostgresUserStore(app.db, app.logger)
	questionStore := postgres.NewPostgresQuestionStore(app.db, app.logger)
	answerStore := postgres.NewPostgresAnswerStore(app.db, app.logger)
	voteStore := postgres.NewPostgresVoteStore(app.db, app.logger)
	notificationStore := postgres.NewPostgresNotificationStore(app.db, app.logger)
	taskStore := postgres.NewPostgresTaskStore(app.db, app.logger)
	tx := store.NewTransactor(app.db)
	// The notifier must exist before the catalog that calls it, so it reads
	// ownership from the same rule directly.
	ownership := service.NewOwnership(questionStore)

	registry := task.NewRegistry()
	app.taskRunner = task.NewTaskRunner(taskStore, registry, task.TaskRunnerConfig{
		WorkerCount:    cfg.Task.WorkerCount,
		QueueSize:      cfg.Task.QueueSize,
		StuckTaskAge:   time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
		PendingTaskAge: cfg.Task.PendingGrace(),
		TaskTimeout:    cfg.Task.Timeout(),
	}, app.logger)
	app.taskRunner.SetErrorHandler(func(t task.Task, _ error) {
		app.metrics.TaskFailed(t.Type())
	})
	app.metrics.RegisterQueueDepth(app.taskRunner.QueueLen)

	notifier, err := service.NewNotifier(
		app.taskRunner,
		answerStore,
		userStore,
		notificationStore,
		ownership,
		app.metrics,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}
	registry.Register(task.TaskTypeNotifyAnswer, task.NewNotifyAnswerFactory(notifier))
	app.notifications = notifier

	app.catalog, err = service.NewCatalogService(questionStore, answerStore, voteStore, tx, notifier, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create catalog service: %w", err)
	}

	app.votes, err = service.NewVoteService(voteStore, app.metrics, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create vote service: %w", err)
	}

	app.acceptance, err = service.NewAcceptanceService(
		questionStore,
		answerStore,
		tx,
		app.catalog,
		app.metrics,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create acceptance service: %w", err)
	}

	app.users, err = service.NewUserService(
		userStore,
		auth.NewBcryptHasher(cfg.Auth.BCryptCost),
		jwtService,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create user service: %w", err)
	}

	app.limiter, app.closeLimiter = ratelimit.New(ctx, cfg.Redis, cfg.RateLimit, app.logger)

	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	return nil
}

// Run serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	handler := newRouter(routerDeps{
		logger:         app.logger,
		requestTimeout: app.config.Server.RequestTimeout(),
		jwtService:     app.jwtService,
		users:          app.users,
		catalog:        app.catalog,
		votes:          app.votes,
		acceptance:     app.acceptance,
		notifications:  app.notifications,
		limiter:        app.limiter,
		observer:       app.metrics,
		metricsHandler: metrics.Handler(app.registry),
		healthCheck:    app.db.PingContext,
	})

	return serveHTTP(ctx, app.config.Server, handler, app.logger)
}

// cleanup releases resources in reverse order of acquisition.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.logger.Info("stopping task runner")
		app.taskRunner.Stop()
	}

	if app.closeLimiter != nil {
		if err := app.closeLimiter(); err != nil {
			app.logger.Error("failed to close rate limiter", "error", err)
		}
	}

	if app.db != nil {
		app.logger.Info("closing database connection")
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
