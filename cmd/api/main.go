package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/siampay/installment-api/docs" // Swagger docs
	"github.com/siampay/installment-api/internal/config"
	"github.com/siampay/installment-api/internal/database"
	"github.com/siampay/installment-api/internal/handlers"
	"github.com/siampay/installment-api/internal/jobs"
	"github.com/siampay/installment-api/internal/middleware"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/siampay/installment-api/internal/services"
	"github.com/siampay/installment-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Installment API
// @version 1.0
// @description REST API for installment contract and payment ledger management

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// User management
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.DELETE("/users/:id", h.User.Delete)
				admin.POST("/users/:id/restore", h.User.Restore)
				admin.PUT("/users/:id/toggle_status", h.User.ToggleStatus)

				// Contract lifecycle decisions
				admin.POST("/contracts/:id/approve", h.Contract.Approve)
				admin.POST("/contracts/:id/reject", h.Contract.Reject)
				admin.POST("/contracts/:id/cancel", h.Contract.Cancel)
				admin.DELETE("/contracts/:id", h.Contract.Delete)
				admin.POST("/contracts/:id/restore", h.Contract.Restore)
				admin.POST("/contracts/sweep_overdue", h.Contract.SweepOverdue)

				// Payment corrections
				admin.POST("/payments/:payment_id/cancel", h.Payment.Cancel)

				// Loan-system exchange
				admin.GET("/integration/loans", h.Integration.ExportLoans)
				admin.GET("/integration/loans/:id", h.Integration.ExportLoan)
				admin.POST("/integration/loans", h.Integration.ImportLoans)

				// Cache and audit administration
				admin.POST("/analytics/dashboard/refresh", h.Analytics.RefreshDashboard)
				admin.GET("/audits", h.Audit.Index)
				admin.GET("/audits/:entity/:id", h.Audit.ByEntity)
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Staff routes (admin, manager, cashier)
			staff := protected.Group("")
			staff.Use(middleware.RequireRole("admin", "manager", "cashier"))
			{
				// Customers
				staff.GET("/customers", h.Customer.Index)
				staff.GET("/customers/:id", h.Customer.Show)
				staff.POST("/customers", h.Customer.Create)
				staff.PUT("/customers/:id", h.Customer.Update)

				// Contracts
				staff.GET("/contracts", h.Contract.Index)
				staff.GET("/contracts/:id", h.Contract.Show)
				staff.POST("/contracts", h.Contract.Create)
				staff.PATCH("/contracts/:id", h.Contract.Update)

				// Payments
				staff.GET("/contracts/:id/payments", h.Payment.History)
				staff.POST("/contracts/:id/payments", h.Payment.Record)
				staff.GET("/payments", h.Payment.Index)
				staff.GET("/payments/:payment_id", h.Payment.Show)

				// Invoices
				staff.GET("/invoices", h.Invoice.Index)
				staff.GET("/invoices/:id", h.Invoice.Show)
				staff.POST("/invoices", h.Invoice.Create)
				staff.PATCH("/invoices/:id", h.Invoice.Update)
				staff.GET("/contracts/:id/invoices", h.Invoice.IndexByContract)

				// Analytics and exports
				staff.GET("/analytics/dashboard", h.Analytics.Dashboard)
				staff.GET("/analytics/aging", h.Analytics.Aging)
				staff.GET("/analytics/export/contracts", h.Analytics.ExportContracts)
				staff.GET("/analytics/export/payments", h.Analytics.ExportPayments)
			}

			// Profile access: admin or the user themselves
			protected.GET("/users/:id", middleware.RequireAdminOrOwner(), h.User.Show)
			protected.PUT("/users/:id", middleware.RequireAdminOrOwner(), h.User.Update)
			protected.PATCH("/users/:id/change_password", h.User.ChangePassword)

			// Notifications (users manage their own)
			// Static routes first so they are not matched as :id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.GET("/unread_count", h.Notification.UnreadCount)
				notifications.POST("/mark_all_as_read", h.Notification.MarkAllAsRead)
				notifications.PUT("/:id", h.Notification.Update)
				notifications.DELETE("/:id", h.Notification.Delete)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Move past-due contracts to overdue on a fixed interval
	worker.ScheduleEvery(cfg.OverdueSweepInterval, func(ctx context.Context) error {
		logger.Info("[Job] Sweeping overdue contracts...")
		swept, err := svcs.Contract.SweepOverdue(ctx)
		if err != nil {
			return err
		}
		if swept > 0 {
			logger.Info("[Job] Contracts marked overdue", "count", swept)
		}
		return nil
	})

	// Drop expired analytics cache rows hourly
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Cleaning expired analytics cache...")
		return svcs.Analytics.CleanExpiredCache(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
