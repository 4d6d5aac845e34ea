package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"kakebo/internal/config"
	"kakebo/internal/database"
	"kakebo/internal/handlers"
	"kakebo/internal/logger"
	"kakebo/internal/middleware"
	"kakebo/internal/services"
	"kakebo/internal/validator"

	_ "kakebo/internal/docs" // Import swagger docs
)

// @title           Kakebo API
// @version         1.0
// @description     Kakebo is a household budgeting application: shared budgets with recurring cycles, allocation-based categories, and frozen historical snapshots.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	budgetService := services.NewBudgetService(db)
	categoryService := services.NewCategoryService(db, budgetService)
	expenseService := services.NewExpenseService(db, budgetService)
	payeeService := services.NewPayeeService(db, budgetService)
	cycleService := services.NewCycleService(db, budgetService)
	invitationService := services.NewInvitationService(db, budgetService, appConfig.InvitationTTL)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService)
	payeeHandler := handlers.NewPayeeHandler(payeeService)
	cycleHandler := handlers.NewCycleHandler(cycleService, auditService)
	invitationHandler := handlers.NewInvitationHandler(invitationService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/me", authHandler.Me)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/members", budgetHandler.GetBudgetMembers)

	// Category routes
	budgets.POST("/:id/categories", categoryHandler.CreateCategory)
	budgets.GET("/:id/categories", categoryHandler.GetCategories)
	budgets.PUT("/:id/categories/:categoryId", categoryHandler.UpdateCategory)
	budgets.DELETE("/:id/categories/:categoryId", categoryHandler.DeleteCategory)
	budgets.GET("/:id/categories/:categoryId/expenses/count", categoryHandler.GetCategoryExpenseCount)

	// Expense routes
	budgets.POST("/:id/expenses", expenseHandler.CreateExpense)
	budgets.GET("/:id/expenses", expenseHandler.GetExpenses)
	budgets.GET("/:id/expenses/:expenseId", expenseHandler.GetExpense)
	budgets.PUT("/:id/expenses/:expenseId", expenseHandler.UpdateExpense)
	budgets.DELETE("/:id/expenses/:expenseId", expenseHandler.DeleteExpense)

	// Payee routes
	budgets.POST("/:id/payees", payeeHandler.CreatePayee)
	budgets.GET("/:id/payees", payeeHandler.GetPayees)
	budgets.PUT("/:id/payees/:payeeId", payeeHandler.UpdatePayee)
	budgets.DELETE("/:id/payees/:payeeId", payeeHandler.DeletePayee)

	// Cycle routes
	budgets.GET("/:id/cycles", cycleHandler.GetCycle)
	budgets.GET("/:id/cycles/list", cycleHandler.ListCycles)
	budgets.POST("/:id/cycles/:cycleId/categories", cycleHandler.AppendSnapshotCategory)

	// Invitation routes
	budgets.POST("/:id/invitations", invitationHandler.CreateInvitation)
	budgets.GET("/:id/invitations", invitationHandler.GetInvitations)
	protected.POST("/invitations/accept", invitationHandler.AcceptInvitation)

	log.Infof("Starting Kakebo backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
