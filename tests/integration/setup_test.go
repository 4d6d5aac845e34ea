package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kakebo/internal/handlers"
	"kakebo/internal/logger"
	"kakebo/internal/middleware"
	"kakebo/internal/models"
	"kakebo/internal/services"
	"kakebo/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	// TranslateError matches the production config so unique-constraint
	// violations surface as gorm.ErrDuplicatedKey here too.
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Budget{},
		&models.BudgetMember{},
		&models.Category{},
		&models.Payee{},
		&models.Expense{},
		&models.ExpenseSplit{},
		&models.BudgetCycle{},
		&models.Invitation{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	budgetService := services.NewBudgetService(db)
	categoryService := services.NewCategoryService(db, budgetService)
	expenseService := services.NewExpenseService(db, budgetService)
	payeeService := services.NewPayeeService(db, budgetService)
	cycleService := services.NewCycleService(db, budgetService)
	invitationService := services.NewInvitationService(db, budgetService, 7*24*time.Hour)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService)
	payeeHandler := handlers.NewPayeeHandler(payeeService)
	cycleHandler := handlers.NewCycleHandler(cycleService, auditService)
	invitationHandler := handlers.NewInvitationHandler(invitationService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/me", authHandler.Me)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/members", budgetHandler.GetBudgetMembers)

	budgets.POST("/:id/categories", categoryHandler.CreateCategory)
	budgets.GET("/:id/categories", categoryHandler.GetCategories)
	budgets.PUT("/:id/categories/:categoryId", categoryHandler.UpdateCategory)
	budgets.DELETE("/:id/categories/:categoryId", categoryHandler.DeleteCategory)
	budgets.GET("/:id/categories/:categoryId/expenses/count", categoryHandler.GetCategoryExpenseCount)

	budgets.POST("/:id/expenses", expenseHandler.CreateExpense)
	budgets.GET("/:id/expenses", expenseHandler.GetExpenses)
	budgets.GET("/:id/expenses/:expenseId", expenseHandler.GetExpense)
	budgets.PUT("/:id/expenses/:expenseId", expenseHandler.UpdateExpense)
	budgets.DELETE("/:id/expenses/:expenseId", expenseHandler.DeleteExpense)

	budgets.POST("/:id/payees", payeeHandler.CreatePayee)
	budgets.GET("/:id/payees", payeeHandler.GetPayees)
	budgets.PUT("/:id/payees/:payeeId", payeeHandler.UpdatePayee)
	budgets.DELETE("/:id/payees/:payeeId", payeeHandler.DeletePayee)

	budgets.GET("/:id/cycles", cycleHandler.GetCycle)
	budgets.GET("/:id/cycles/list", cycleHandler.ListCycles)
	budgets.POST("/:id/cycles/:cycleId/categories", cycleHandler.AppendSnapshotCategory)

	budgets.POST("/:id/invitations", invitationHandler.CreateInvitation)
	budgets.GET("/:id/invitations", invitationHandler.GetInvitations)
	protected.POST("/invitations/accept", invitationHandler.AcceptInvitation)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode extracts the error code from an error response body.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in body: %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"name":"Test User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createBudget creates a monthly budget starting on the 1st and returns its ID.
func (app *testApp) createBudget(t *testing.T, token, name string, totalAmount int64) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"total_amount":%d,"currency":"USD","locale":"en-US","cycle_type":"MONTHLY","cycle_start_day":1}`,
		name, totalAmount)
	rec := app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	return budget["id"].(string)
}

// createCategory creates a fixed-allocation category and returns its ID.
func (app *testApp) createCategory(t *testing.T, token, budgetID, name string, value int64) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"allocation_method":"FIXED","allocation_value":%d}`, name, value)
	rec := app.request("POST", "/api/v1/budgets/"+budgetID+"/categories", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category failed: %d %s", rec.Code, rec.Body.String())
	}
	category := parseJSON(t, rec)["category"].(map[string]interface{})
	return category["id"].(string)
}

// createExpense creates a single-split expense on the given date and returns its ID.
func (app *testApp) createExpense(t *testing.T, token, budgetID, categoryID string, amount int64, date time.Time) string {
	t.Helper()
	body := fmt.Sprintf(`{"amount":%d,"date":%q,"description":"test expense","splits":[{"category_id":%q,"allocation_method":"FIXED","allocation_value":%d}]}`,
		amount, date.Format(time.RFC3339), categoryID, amount)
	rec := app.request("POST", "/api/v1/budgets/"+budgetID+"/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense failed: %d %s", rec.Code, rec.Body.String())
	}
	expense := parseJSON(t, rec)["expense"].(map[string]interface{})
	return expense["id"].(string)
}
