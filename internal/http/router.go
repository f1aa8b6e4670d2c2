package http

import (
	"github.com/gin-gonic/gin"

	"github.com/booklify/admin/internal/auth"
	"github.com/booklify/admin/internal/entities"
)

// BasePath is the prefix of every CMS endpoint.
const BasePath = "/api/cms"

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(recoveryMiddleware())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	health := NewHealthController(cfg.Database, cfg.Version)
	if cfg.Schedule != nil {
		health.WithSchedule(cfg.Schedule)
	}
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group(BasePath)
	api.GET("/health", health.Status)
	api.GET("/ping", health.Ping)

	auth.NewAuthController(cfg.AuthService, cfg.RateLimiter, cfg.Audit).RegisterRoutes(api)

	mw := cfg.AuthMiddleware
	secured := api.Group("", mw.Handler())
	adminOnly := mw.RequireRole(entities.UserRoleAdmin)
	staffOrAdmin := mw.RequireRole(entities.UserRoleAdmin, entities.UserRoleStaff)

	users := NewUsersController(cfg.AuthService)
	accounts := NewAccountsController(cfg.Users, cfg.Subscriptions, cfg.AuthService, cfg.Audit)
	secured.GET("/users/me", users.Me)
	secured.POST("/users", adminOnly, users.CreateUser)

	readerRoutes := secured.Group("/users", staffOrAdmin)
	{
		readerRoutes.GET("", accounts.ListReaders)
		readerRoutes.GET("/:id", accounts.GetReader)
		readerRoutes.GET("/:id/subscriptions", accounts.ReaderSubscriptions)
		readerRoutes.GET("/:id/payments", accounts.ReaderPayments)
		readerRoutes.PATCH("/:id/status", adminOnly, accounts.SetReaderStatus)
		readerRoutes.POST("/:id/subscription/manage", adminOnly, accounts.ManageSubscription)
	}

	staffRoutes := secured.Group("/staff", adminOnly)
	{
		staffRoutes.GET("", accounts.ListStaff)
		staffRoutes.POST("", accounts.CreateStaff)
		staffRoutes.GET("/:id", accounts.GetStaff)
		staffRoutes.PATCH("/:id", accounts.UpdateStaff)
	}

	booksController := NewBooksController(cfg.Books, cfg.Categories, cfg.Audit)
	approvalController := NewApprovalController(cfg.Books, cfg.Audit)
	deleteController := NewDeleteController(cfg.Books, cfg.Audit)

	bookRoutes := secured.Group("/books", staffOrAdmin)
	{
		bookRoutes.GET("/list", booksController.ListBooks)
		bookRoutes.GET("/statistics", booksController.GetStatistics)
		bookRoutes.POST("", booksController.CreateBook)
		bookRoutes.GET("/:id", booksController.GetBook)
		bookRoutes.PATCH("/:id", booksController.UpdateBook)
		bookRoutes.DELETE("/:id", adminOnly, deleteController.DeleteBook)
		bookRoutes.PUT("/:id/manage-status", adminOnly, approvalController.ManageStatus)
		bookRoutes.PUT("/:id/resubmit", approvalController.Resubmit)
		bookRoutes.GET("/:id/approval-history", approvalController.ApprovalHistory)
	}

	categoriesController := NewCategoriesController(cfg.Categories, cfg.Audit)
	categoryRoutes := secured.Group("/book-categories")
	{
		categoryRoutes.GET("", categoriesController.ListCategories)
		categoryRoutes.POST("", adminOnly, categoriesController.CreateCategory)
		categoryRoutes.PUT("/:id", adminOnly, categoriesController.UpdateCategory)
		categoryRoutes.DELETE("/:id", adminOnly, categoriesController.DeleteCategory)
	}

	plans := NewPlansController(cfg.Subscriptions, cfg.Audit)
	planRoutes := secured.Group("/subscriptions", staffOrAdmin)
	{
		planRoutes.GET("", plans.ListPlans)
		planRoutes.GET("/statistics", plans.GetStatistics)
		planRoutes.GET("/:id", plans.GetPlan)
		planRoutes.POST("", adminOnly, plans.CreatePlan)
		planRoutes.PUT("/:id", adminOnly, plans.UpdatePlan)
		planRoutes.DELETE("/:id", adminOnly, plans.DeletePlan)
	}

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		secured.GET("/audit-events", adminOnly, auditController.GetAuditEvents)
	}

	if cfg.Audit != nil && cfg.Settings != nil {
		mc := NewMaintenanceController(cfg.Settings, cfg.TaskQueue, cfg.Schedule, cfg.Audit, cfg.AuditRetentionDays)
		maintenance := secured.Group("/maintenance", adminOnly)
		maintenance.GET("/audit-cleanup", mc.AuditCleanupStatus)
		maintenance.POST("/audit-cleanup/run", mc.RunAuditCleanup)
		maintenance.GET("/tasks/:id", mc.GetTaskStatus)
	}

	return router
}
