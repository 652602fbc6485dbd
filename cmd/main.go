package main

import (
	"github.com/Maderside/PropertyManagementSystem/internal/handler"
	"github.com/Maderside/PropertyManagementSystem/internal/middleware"
	"github.com/Maderside/PropertyManagementSystem/pkg/config"
	"github.com/Maderside/PropertyManagementSystem/pkg/database"
	"github.com/Maderside/PropertyManagementSystem/pkg/jwtutil"
	"github.com/Maderside/PropertyManagementSystem/pkg/logger"
	"github.com/Maderside/PropertyManagementSystem/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting property management service...", zap.String("environment", cfg.Server.Env))

	// Initialize database and run migrations
	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established",
		zap.String("db_host", cfg.DB.Host),
		zap.String("db_name", cfg.DB.DBName))

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Handlers with the database handle injected
	userHandler := handler.NewUserHandler(db)
	propertyHandler := handler.NewPropertyHandler(db)
	responsibilityHandler := handler.NewResponsibilityHandler(db)
	announcementHandler := handler.NewAnnouncementHandler(db)
	transactionHandler := handler.NewTransactionHandler(db)
	tenantRequestHandler := handler.NewTenantRequestHandler(db)

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.POST("/register", userHandler.Register)
	e.POST("/token", userHandler.Login)

	// Authenticated routes
	api := e.Group("")
	api.Use(middleware.Auth(db))

	// Users
	api.GET("/users/me", userHandler.Profile)
	api.PUT("/users/me/invite-code", userHandler.RegenerateInviteCode)
	api.GET("/get-tenants-for-property/:property_id", userHandler.TenantsForProperty)

	// Properties and tenancies
	api.GET("/rental-properties", propertyHandler.ListProperties)
	api.GET("/property/:property_id", propertyHandler.GetProperty)
	api.POST("/add-property", propertyHandler.CreateProperty)
	api.DELETE("/delete-property/:property_id", propertyHandler.DeleteProperty)
	api.POST("/add-tenant-to-property/:property_id/:code", propertyHandler.AddTenant)
	api.DELETE("/remove-tenant-from-property/:property_id/:tenant_id", propertyHandler.RemoveTenant)
	api.DELETE("/leave-property/:property_id", propertyHandler.LeaveProperty)

	// Responsibilities
	api.GET("/responsibilities/:property_id", responsibilityHandler.ListResponsibilities)
	api.POST("/add-responsibility/:property_id", responsibilityHandler.CreateResponsibility)
	api.PUT("/update-responsibility/:responsibility_id", responsibilityHandler.UpdateResponsibility)
	api.DELETE("/delete-responsibility/:responsibility_id", responsibilityHandler.DeleteResponsibility)

	// Announcements
	api.GET("/announcements/:property_id", announcementHandler.ListAnnouncements)
	api.POST("/add-announcement/:property_id", announcementHandler.CreateAnnouncement)
	api.PUT("/update-announcement/:announcement_id", announcementHandler.UpdateAnnouncement)
	api.DELETE("/delete-announcement/:announcement_id", announcementHandler.DeleteAnnouncement)

	// Transactions and their resolutions
	api.GET("/transactions/:property_id", transactionHandler.ListTransactions)
	api.GET("/all-resolved-transactions", transactionHandler.AllResolvedTransactions)
	api.GET("/transaction-resolutions/:transaction_id", transactionHandler.ListResolutions)
	api.POST("/add-transaction/:property_id", transactionHandler.CreateTransaction)
	api.PUT("/update-transaction/:transaction_id", transactionHandler.UpdateTransaction)
	api.DELETE("/delete-transaction/:transaction_id", transactionHandler.DeleteTransaction)
	api.POST("/add-transaction-resolution", transactionHandler.AddResolution)
	api.DELETE("/remove-transaction-resolution/:transaction_id/:user_id", transactionHandler.RemoveResolution)
	api.PUT("/resolve-transaction/:transaction_id", transactionHandler.ToggleResolution)

	// Tenant requests and their resolutions
	api.GET("/tenant-request/:property_id", tenantRequestHandler.ListRequests)
	api.GET("/request-resolutions/:request_id", tenantRequestHandler.ListResolutions)
	api.POST("/add-tenant-request/:property_id", tenantRequestHandler.CreateRequest)
	api.PUT("/update-tenant-request/:request_id", tenantRequestHandler.UpdateRequest)
	api.DELETE("/delete-tenant-request/:request_id", tenantRequestHandler.DeleteRequest)
	api.POST("/add-request-resolution", tenantRequestHandler.AddResolution)
	api.DELETE("/remove-request-resolution/:request_id/:user_id", tenantRequestHandler.RemoveResolution)
	api.PUT("/resolve-tenant-request/:request_id", tenantRequestHandler.ToggleResolution)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
