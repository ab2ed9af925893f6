package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civic-complaints/internal/api/http"
	"github.com/spec-kit/civic-complaints/internal/api/http/handlers"
	"github.com/spec-kit/civic-complaints/internal/auth"
	"github.com/spec-kit/civic-complaints/internal/cache"
	"github.com/spec-kit/civic-complaints/internal/config"
	"github.com/spec-kit/civic-complaints/internal/events"
	"github.com/spec-kit/civic-complaints/internal/observability"
	"github.com/spec-kit/civic-complaints/internal/persistence"
	"github.com/spec-kit/civic-complaints/internal/repository"
	"github.com/spec-kit/civic-complaints/internal/service"
	"github.com/spec-kit/civic-complaints/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	historyRepo := repository.NewComplaintHistoryRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	nearbyCache := cache.NewRedisNearbyCache(redis.Client)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		OrgRepo:    orgRepo,
		StaffRepo:  staffRepo,
		Tokens:     tokens,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo:  complaintRepo,
		HistoryRepo:    historyRepo,
		DepartmentRepo: departmentRepo,
		StaffRepo:      staffRepo,
		OrgRepo:        orgRepo,
		AttachmentRepo: attachmentRepo,
		TxRunner:       txRunner,
		NearbyCache:    nearbyCache,
		Dispatcher:     dispatcher,
	})
	locatorService := service.NewLocatorService(service.LocatorDependencies{
		StaffRepo:        staffRepo,
		DepartmentRepo:   departmentRepo,
		NearbyCache:      nearbyCache,
		Logger:           logger,
		PrimaryRadiusKm:  cfg.Dispatch.PrimaryRadiusKm,
		FallbackRadiusKm: cfg.Dispatch.FallbackRadiusKm,
		CacheTTL:         cfg.Dispatch.NearbyCacheTTL(),
	})
	reviewService := service.NewReviewService(service.ReviewDependencies{
		ReviewRepo:    reviewRepo,
		ComplaintRepo: complaintRepo,
		StaffRepo:     staffRepo,
		TxRunner:      txRunner,
		Dispatcher:    dispatcher,
	})
	staffService := service.NewStaffService(service.StaffDependencies{
		StaffRepo:      staffRepo,
		DepartmentRepo: departmentRepo,
		ComplaintRepo:  complaintRepo,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo, staffRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Complaints:     handlers.NewComplaintsHandler(complaintService),
		Staff:          handlers.NewStaffHandler(staffService, locatorService),
		Reviews:        handlers.NewReviewsHandler(reviewService),
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
