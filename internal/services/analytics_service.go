package services

import (
	"gorm.io/gorm"

	"spendsense/internal/analytics"
	"spendsense/internal/logger"
	"spendsense/internal/models"
)

// analyticsService builds read-only month views. It never writes.
type analyticsService struct {
	db      *gorm.DB
	budgets BudgetServicer
	now     Clock
}

// NewAnalyticsService creates a new AnalyticsServicer. budgets supplies the
// dashboard warnings and may be nil.
func NewAnalyticsService(db *gorm.DB, budgets BudgetServicer, clock Clock) AnalyticsServicer {
	if clock == nil {
		clock = UTCClock
	}
	return &analyticsService{db: db, budgets: budgets, now: clock}
}

func (s *analyticsService) summary(userID string, year, month int) (*models.User, *analytics.Summary, error) {
	user, expenses, w, err := monthExpenses(s.db, s.now, userID, year, month)
	if err != nil {
		return nil, nil, err
	}
	summary := analytics.Aggregate(expenses, user.MonthlyAllowance, w)
	return user, &summary, nil
}

// GetMonthSummary returns the aggregation for one month.
func (s *analyticsService) GetMonthSummary(userID string, year, month int) (*analytics.Summary, error) {
	_, summary, err := s.summary(userID, year, month)
	return summary, err
}

// GetDashboard returns the month summary with gamification state. Warnings
// are fetched best-effort: a failure there leaves them empty.
func (s *analyticsService) GetDashboard(userID string, year, month int) (*Dashboard, error) {
	user, summary, err := s.summary(userID, year, month)
	if err != nil {
		return nil, err
	}

	var badges []models.UserBadge
	if err := s.db.Where("user_id = ?", userID).Order("earned_at ASC").Find(&badges).Error; err != nil {
		logger.Named("analytics").Warnw("failed to load badges for dashboard", "user_id", userID, "error", err)
	}
	ids := make([]models.BadgeID, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.BadgeID)
	}

	dash := &Dashboard{
		Summary: *summary,
		Gamification: GamificationSnapshot{
			CurrentStreak:   user.SavingStreak,
			LongestStreak:   user.LongestStreak,
			DisciplineScore: user.BudgetDisciplineScore,
			Badges:          ids,
		},
		Warnings: []analytics.Warning{},
	}

	if s.budgets != nil {
		warnings, err := s.budgets.GetWarnings(userID, summary.Year, summary.Month)
		if err != nil {
			logger.Named("analytics").Warnw("failed to load budget warnings", "user_id", userID, "error", err)
		} else {
			dash.Warnings = warnings
		}
	}
	return dash, nil
}
