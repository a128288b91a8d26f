package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"spendsense/internal/config"
	"spendsense/internal/handlers"
	"spendsense/internal/logger"
	"spendsense/internal/middleware"
	"spendsense/internal/services"
	"spendsense/internal/testutil"
	"spendsense/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	clock  *testClock
}

// testClock is a settable clock shared by every service of one app.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) AddDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

// appStart is the default "now" of every test app: mid-March 2024, UTC.
var appStart = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	clock := &testClock{now: appStart}
	now := services.Clock(clock.Now)

	// Services
	userService := services.NewUserService(db, now, 10*time.Minute)
	gamificationService := services.NewGamificationService(db, now)
	expenseService := services.NewExpenseService(db, gamificationService, now)
	budgetService := services.NewBudgetService(db, now)
	analyticsService := services.NewAnalyticsService(db, budgetService, now)
	auditService := services.NewAuditService(db)
	emailService := services.NewEmailService(config.SMTPConfig{}, 10*time.Minute)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, emailService, auditService, handlers.AuthOptions{
		ClientURL:        "http://localhost:3000",
		ExposeResetToken: true,
	})
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService, now)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	gamificationHandler := handlers.NewGamificationHandler(gamificationService)

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

	return &testApp{DB: db, Router: router, clock: clock}
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

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a new user with the given monthly allowance and
// returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string, allowance int) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Test User","email":%q,"password":%q,"monthly_allowance":%d}`, email, password, allowance)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), result["refresh_token"].(string), user["id"].(string)
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
	return result["token"].(string), result["refresh_token"].(string)
}

// addExpense posts an expense and returns the decoded response. An empty
// date means the test clock's current day.
func (app *testApp) addExpense(t *testing.T, token, category string, amount float64, date string) map[string]interface{} {
	t.Helper()
	if date == "" {
		date = app.clock.Now().Format("2006-01-02")
	}
	body := fmt.Sprintf(`{"amount":%v,"category":%q,"description":"%s expense","date":%q}`, amount, category, category, date)
	rec := app.request("POST", "/api/v1/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add expense failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)
}

func badgeIDs(v interface{}) []string {
	list, _ := v.([]interface{})
	out := make([]string, 0, len(list))
	for _, b := range list {
		switch b := b.(type) {
		case string:
			out = append(out, b)
		case map[string]interface{}:
			out = append(out, fmt.Sprint(b["id"]))
		}
	}
	return out
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
