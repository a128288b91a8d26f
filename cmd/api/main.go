package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"spendsense/internal/config"
	"spendsense/internal/database"
	"spendsense/internal/handlers"
	"spendsense/internal/logger"
	"spendsense/internal/middleware"
	"spendsense/internal/services"
	"spendsense/internal/validator"

	_ "spendsense/internal/docs" // Import swagger docs
)

// @title           SpendSense API
// @version         1.0
// @description     SpendSense tracks daily expenses against a monthly allowance, with analytics, budget warnings, saving streaks and badges.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(appConfig.Env)
	defer logger.Sync()
	log := logger.Get()

	dbConfig, err := database.NewConfig(appConfig)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	clock := services.Clock(appConfig.Now)
	userService := services.NewUserService(db, clock, appConfig.ResetTokenTTL)
	gamificationService := services.NewGamificationService(db, clock)
	expenseService := services.NewExpenseService(db, gamificationService, clock)
	budgetService := services.NewBudgetService(db, clock)
	analyticsService := services.NewAnalyticsService(db, budgetService, clock)
	auditService := services.NewAuditService(db)
	emailService := services.NewEmailService(appConfig.SMTP, appConfig.ResetTokenTTL)

	if !emailService.Enabled() {
		log.Warn("SMTP is not configured; password reset emails will not be sent")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, emailService, auditService, handlers.AuthOptions{
		ClientURL:        appConfig.ClientURL,
		ExposeResetToken: !appConfig.IsProduction(),
	})
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService, clock)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	gamificationHandler := handlers.NewGamificationHandler(gamificationService)

	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(appConfig.ClientURL))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "SpendSense API is running"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.GET("/reset-password/:token", authHandler.VerifyResetToken)
	auth.POST("/reset-password/:token", authHandler.ResetPassword)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/me", authHandler.GetProfile)
	protected.PUT("/auth/profile", authHandler.UpdateProfile)
	protected.PUT("/auth/password", authHandler.ChangePassword)

	protected.GET("/settings/budget", budgetHandler.GetSettings)
	protected.PUT("/settings/budget", budgetHandler.UpdateSettings)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	analytics := protected.Group("/analytics")
	analytics.GET("/dashboard", analyticsHandler.GetDashboard)
	analytics.GET("/categories", analyticsHandler.GetCategoryBreakdown)
	analytics.GET("/daily", analyticsHandler.GetDailySpending)
	analytics.GET("/heatmap", analyticsHandler.GetHeatmap)

	budgets := protected.Group("/budgets")
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("", budgetHandler.SetCategoryBudget)
	budgets.GET("/warnings", budgetHandler.GetWarnings)

	badges := protected.Group("/badges")
	badges.GET("", gamificationHandler.GetBadges)
	badges.GET("/available", gamificationHandler.GetAvailableBadges)
	badges.POST("/check", gamificationHandler.CheckBadges)

	protected.GET("/streak", gamificationHandler.GetStreak)

	log.Infof("Starting SpendSense server on port %s (timezone %s)", appConfig.Port, appConfig.Location)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
