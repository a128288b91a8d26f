package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendsense/internal/errors"
	"spendsense/internal/gamification"
	"spendsense/internal/models"
	"spendsense/internal/services"
)

type mockGamificationService struct {
	recordActivityFn     func(userID string) (*services.ActivityResult, error)
	checkBadgesFn        func(userID string) ([]models.BadgeID, error)
	getBadgesFn          func(userID string) ([]services.EarnedBadge, error)
	getAvailableBadgesFn func(userID string) ([]services.BadgeStatus, error)
	getStreakFn          func(userID string) (*services.StreakStatus, error)
}

func (m *mockGamificationService) RecordActivity(userID string) (*services.ActivityResult, error) {
	if m.recordActivityFn != nil {
		return m.recordActivityFn(userID)
	}
	return &services.ActivityResult{}, nil
}

func (m *mockGamificationService) CheckBadges(userID string) ([]models.BadgeID, error) {
	if m.checkBadgesFn != nil {
		return m.checkBadgesFn(userID)
	}
	return []models.BadgeID{}, nil
}

func (m *mockGamificationService) GetBadges(userID string) ([]services.EarnedBadge, error) {
	if m.getBadgesFn != nil {
		return m.getBadgesFn(userID)
	}
	return []services.EarnedBadge{}, nil
}

func (m *mockGamificationService) GetAvailableBadges(userID string) ([]services.BadgeStatus, error) {
	if m.getAvailableBadgesFn != nil {
		return m.getAvailableBadgesFn(userID)
	}
	return []services.BadgeStatus{}, nil
}

func (m *mockGamificationService) GetStreak(userID string) (*services.StreakStatus, error) {
	if m.getStreakFn != nil {
		return m.getStreakFn(userID)
	}
	return &services.StreakStatus{}, nil
}

var _ services.GamificationServicer = (*mockGamificationService)(nil)

func setupGamificationRouter(svc *mockGamificationService) *gin.Engine {
	handler := NewGamificationHandler(svc)
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/badges", handler.GetBadges)
	auth.GET("/badges/available", handler.GetAvailableBadges)
	auth.POST("/badges/check", handler.CheckBadges)
	auth.GET("/streak", handler.GetStreak)
	return r
}

func TestGamificationHandler_GetBadges(t *testing.T) {
	t.Run("returns earned badges with totals", func(t *testing.T) {
		earned := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		svc := &mockGamificationService{
			getBadgesFn: func(string) ([]services.EarnedBadge, error) {
				return []services.EarnedBadge{{ID: models.BadgeFirstExpense, Name: "First Step", EarnedAt: earned}}, nil
			},
		}
		r := setupGamificationRouter(svc)

		rec := doRequest(r, "GET", "/badges", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["count"].(float64) != 1 || int(result["total"].(float64)) != len(gamification.Definitions) {
			t.Errorf("unexpected counts %v", result)
		}
		badge := result["badges"].([]interface{})[0].(map[string]interface{})
		if badge["id"] != "first_expense" || badge["earned_at"] != "2024-03-01T09:00:00Z" {
			t.Errorf("unexpected badge %v", badge)
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewGamificationHandler(&mockGamificationService{})
		r := gin.New()
		r.GET("/badges", handler.GetBadges)

		rec := doRequest(r, "GET", "/badges", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestGamificationHandler_GetAvailableBadges(t *testing.T) {
	svc := &mockGamificationService{
		getAvailableBadgesFn: func(string) ([]services.BadgeStatus, error) {
			out := make([]services.BadgeStatus, 0, len(gamification.Definitions))
			for _, d := range gamification.Definitions {
				out = append(out, services.BadgeStatus{ID: d.ID, Name: d.Name, Earned: d.ID == models.BadgeWeekSaver})
			}
			return out, nil
		},
	}
	r := setupGamificationRouter(svc)

	rec := doRequest(r, "GET", "/badges/available", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	badges := parseJSON(t, rec)["badges"].([]interface{})
	if len(badges) != len(gamification.Definitions) {
		t.Fatalf("expected full catalogue, got %d", len(badges))
	}
	earned := 0
	for _, b := range badges {
		if b.(map[string]interface{})["earned"] == true {
			earned++
		}
	}
	if earned != 1 {
		t.Errorf("expected one earned badge, got %d", earned)
	}
}

func TestGamificationHandler_CheckBadges(t *testing.T) {
	t.Run("new badges", func(t *testing.T) {
		svc := &mockGamificationService{
			checkBadgesFn: func(string) ([]models.BadgeID, error) {
				return []models.BadgeID{models.BadgeBudgetMaster}, nil
			},
		}
		r := setupGamificationRouter(svc)

		rec := doRequest(r, "POST", "/badges/check", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["message"] != "New badges earned!" {
			t.Errorf("unexpected message %v", result["message"])
		}
		if b := result["new_badges"].([]interface{}); len(b) != 1 || b[0] != "budget_master" {
			t.Errorf("unexpected badges %v", b)
		}
	})

	t.Run("nothing new", func(t *testing.T) {
		r := setupGamificationRouter(&mockGamificationService{})

		rec := doRequest(r, "POST", "/badges/check", "")
		result := parseJSON(t, rec)
		if result["message"] != "No new badges" {
			t.Errorf("unexpected message %v", result["message"])
		}
		if b, ok := result["new_badges"].([]interface{}); !ok || len(b) != 0 {
			t.Errorf("expected empty array, got %v", result["new_badges"])
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := &mockGamificationService{
			checkBadgesFn: func(string) ([]models.BadgeID, error) { return nil, apperrors.ErrUserNotFound },
		}
		r := setupGamificationRouter(svc)

		rec := doRequest(r, "POST", "/badges/check", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestGamificationHandler_GetStreak(t *testing.T) {
	svc := &mockGamificationService{
		getStreakFn: func(string) (*services.StreakStatus, error) {
			return &services.StreakStatus{
				CurrentStreak:         5,
				LongestStreak:         12,
				BudgetDisciplineScore: 90,
				TodaySpent:            decimal.NewFromInt(20),
				DailyBudget:           decimal.RequireFromString("32.26"),
				IsWithinBudget:        true,
				ExpectedSpendingByNow: decimal.NewFromInt(300),
				MonthSpent:            decimal.NewFromInt(280),
			}, nil
		},
	}
	r := setupGamificationRouter(svc)

	rec := doRequest(r, "GET", "/streak", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["current_streak"].(float64) != 5 || result["daily_budget"].(float64) != 32.26 {
		t.Errorf("unexpected streak %v", result)
	}
	if result["is_within_budget"] != true {
		t.Error("expected within budget")
	}
	if _, ok := result["last_active_date"]; ok {
		t.Error("last_active_date should be omitted when nil")
	}
}
