package main

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/api"
	v1 "github.com/flexprice/flexgym/internal/api/v1"
	"github.com/flexprice/flexgym/internal/cache"
	"github.com/flexprice/flexgym/internal/config"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/postgres"
	"github.com/flexprice/flexgym/internal/publisher"
	"github.com/flexprice/flexgym/internal/pubsub"
	"github.com/flexprice/flexgym/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/flexgym/internal/pubsub/router"
	"github.com/flexprice/flexgym/internal/repository"
	"github.com/flexprice/flexgym/internal/sentry"
	"github.com/flexprice/flexgym/internal/service"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/flexprice/flexgym/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title FlexGym API
// @version 1.0
// @description Membership lifecycle and billing engine for gyms
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey GymID
// @in header
// @name X-Gym-ID

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Initialize Fx application
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,

			// Event bus
			memory.NewPubSub,
			publisher.NewLifecycleEventPublisher,
			publisher.NewJournal,
			pubsubRouter.NewRouter,

			// Repositories
			repository.NewMemberRepository,
			repository.NewPackageRepository,
			repository.NewMembershipRepository,
			repository.NewMembershipChangeRepository,
			repository.NewCommissionRepository,
			repository.NewPaymentRepository,
			repository.NewCreditRepository,
			repository.NewInstallmentRepository,
			repository.NewSessionRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewSagaRunner,
			service.NewServiceParams,

			// Catalog
			service.NewMemberService,
			service.NewPackageService,

			// Lifecycle and billing
			service.NewMembershipService,
			service.NewLifecycleService,
			service.NewPaymentService,
			service.NewSessionService,
			service.NewCreditService,
			service.NewTrainerService,
			service.NewCalculatorService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	db *postgres.DB,
	logger *logger.Logger,
	events publisher.LifecycleEventPublisher,
	memberService service.MemberService,
	packageService service.PackageService,
	membershipService service.MembershipService,
	lifecycleService service.LifecycleService,
	paymentService service.PaymentService,
	sessionService service.SessionService,
	creditService service.CreditService,
	trainerService service.TrainerService,
	calculatorService service.CalculatorService,
) api.Handlers {
	return api.Handlers{
		Health:     v1.NewHealthHandler(db, logger),
		Membership: v1.NewMembershipHandler(membershipService, events, logger),
		Lifecycle:  v1.NewLifecycleHandler(lifecycleService, events, logger),
		Payment:    v1.NewPaymentHandler(paymentService, events, logger),
		Session:    v1.NewSessionHandler(sessionService, events, logger),
		Preview:    v1.NewPreviewHandler(calculatorService, logger),
		Member:     v1.NewMemberHandler(memberService, membershipService, creditService, events, logger),
		Package:    v1.NewPackageHandler(packageService, logger),
		Trainer:    v1.NewTrainerHandler(trainerService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	router *pubsubRouter.Router,
	bus pubsub.PubSub,
	journal *publisher.Journal,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, bus, journal, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("Closing database connection...")
			db.Close()
			return nil
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	bus pubsub.PubSub,
	journal *publisher.Journal,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	if !cfg.Event.Enabled {
		log.Info("Lifecycle events disabled, message router not started")
		return
	}

	router.AddNoPublishHandler("lifecycle_journal", cfg.Event.Topic, bus, journal.Handle)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting message router...")
			go func() {
				// the start context is cancelled once fx finishes starting
				if err := router.Run(context.Background()); err != nil {
					log.Errorw("message router stopped", "error", err)
				}
			}()
			select {
			case <-router.Running():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down message router...")
			if err := router.Close(); err != nil {
				return err
			}
			return bus.Close()
		},
	})
}
