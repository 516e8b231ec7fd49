package api

import (
	v1 "github.com/flexprice/flexgym/internal/api/v1"
	"github.com/flexprice/flexgym/internal/config"
	"github.com/flexprice/flexgym/internal/logger"
	"github.com/flexprice/flexgym/internal/rest/middleware"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health     *v1.HealthHandler
	Membership *v1.MembershipHandler
	Lifecycle  *v1.LifecycleHandler
	Payment    *v1.PaymentHandler
	Session    *v1.SessionHandler
	Preview    *v1.PreviewHandler
	Member     *v1.MemberHandler
	Package    *v1.PackageHandler
	Trainer    *v1.TrainerHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	v1Group.Use(middleware.GymContextMiddleware)
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Membership routes
	memberships := router.Group("/memberships")
	{
		memberships.POST("", handlers.Membership.Purchase)
		memberships.GET("/:id", handlers.Membership.Get)
		memberships.GET("/:id/changes", handlers.Membership.ListChanges)
		memberships.GET("/:id/sessions", handlers.Session.ListByMembership)

		memberships.POST("/:id/upgrade", handlers.Lifecycle.Upgrade)
		memberships.POST("/:id/downgrade", handlers.Lifecycle.Downgrade)
		memberships.POST("/:id/transfer", handlers.Lifecycle.Transfer)
		memberships.POST("/:id/freeze", handlers.Lifecycle.Freeze)
		memberships.POST("/:id/unfreeze", handlers.Lifecycle.Unfreeze)
		memberships.POST("/:id/suspend", handlers.Lifecycle.Suspend)
		memberships.POST("/:id/reactivate", handlers.Lifecycle.Reactivate)
		memberships.POST("/:id/cancel", handlers.Lifecycle.Cancel)
		memberships.POST("/:id/expire", handlers.Lifecycle.Expire)
		memberships.POST("/:id/trainer", handlers.Lifecycle.ChangeTrainer)

		memberships.POST("/:id/payments", handlers.Payment.RecordPayment)
		memberships.GET("/:id/payments", handlers.Payment.ListPayments)
		memberships.POST("/:id/payment-plan", handlers.Payment.CreatePaymentPlan)
	}

	// Preview routes
	previews := router.Group("/previews")
	{
		previews.POST("/proration", handlers.Preview.Proration)
		previews.POST("/commission", handlers.Preview.Commission)
		previews.POST("/installments", handlers.Preview.Installments)
		previews.POST("/installments/resize", handlers.Preview.ResizeDueDates)
	}

	// Session routes
	sessions := router.Group("/sessions")
	{
		sessions.POST("", handlers.Session.Schedule)
		sessions.GET("/conflicts", handlers.Session.Conflicts)
		sessions.GET("/:id", handlers.Session.Get)
		sessions.POST("/:id/complete", handlers.Session.Complete)
		sessions.POST("/:id/cancel", handlers.Session.Cancel)
	}

	// Member routes
	members := router.Group("/members")
	{
		members.POST("", handlers.Member.Create)
		members.GET("/:id", handlers.Member.Get)
		members.GET("/:id/memberships", handlers.Member.ListMemberships)
		members.GET("/:id/credits", handlers.Member.GetCredits)
		members.GET("/:id/credits/transactions", handlers.Member.ListCreditTransactions)
		members.POST("/:id/credits/adjustments", handlers.Member.AdjustCredits)
	}

	// Package routes
	packages := router.Group("/packages")
	{
		packages.POST("", handlers.Package.Create)
		packages.GET("", handlers.Package.List)
		packages.GET("/:id", handlers.Package.Get)
	}

	router.GET("/trainers/:id/earnings", handlers.Trainer.ListEarnings)
}
