package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-ai-service/internal/ai"
	httptransport "github.com/spec-kit/support-ai-service/internal/api/http"
	"github.com/spec-kit/support-ai-service/internal/api/http/handlers"
	"github.com/spec-kit/support-ai-service/internal/auth"
	"github.com/spec-kit/support-ai-service/internal/config"
	"github.com/spec-kit/support-ai-service/internal/dedup"
	"github.com/spec-kit/support-ai-service/internal/events"
	"github.com/spec-kit/support-ai-service/internal/observability"
	"github.com/spec-kit/support-ai-service/internal/persistence"
	"github.com/spec-kit/support-ai-service/internal/repository"
	"github.com/spec-kit/support-ai-service/internal/service"
	"github.com/spec-kit/support-ai-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var guard dedup.Guard
	if cfg.Dedup.UseRedis {
		guard = dedup.NewRedisGuard(redis.Client, cfg.Dedup.Window())
	} else {
		guard = dedup.NewMemoryGuard(cfg.Dedup.Window())
	}

	planner := ai.NewPlannerClient(cfg.AI)
	if !planner.Configured() {
		logger.Warn("AI planner not configured; queries will use fallback responses")
	}
	invoker := ai.NewInvoker(planner, cfg.AI, logger)

	pool := pg.PoolHandle()
	customerRepo := repository.NewCustomerRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	approvalRepo := repository.NewApprovalRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	pipeline := service.NewQueryPipeline(service.PipelineDependencies{
		CustomerRepo:     customerRepo,
		TicketRepo:       ticketRepo,
		ConversationRepo: conversationRepo,
		ApprovalRepo:     approvalRepo,
		Invoker:          invoker,
		Guard:            guard,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
		OverallTimeout:   cfg.AI.OverallTimeout(),
	})
	ticketService := service.NewTicketService(ticketRepo, customerRepo, conversationRepo, approvalRepo, logger)
	approvalService := service.NewApprovalService(approvalRepo, ticketRepo, invoker, dispatcher, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, 60)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, cfg.Auth.Required)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics, planner.Configured()),
		Tickets:        handlers.NewTicketsHandler(pipeline, ticketService),
		Approvals:      handlers.NewApprovalsHandler(approvalService),
		Conversations:  handlers.NewConversationsHandler(ticketService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
