package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spendsense/internal/analytics"
	apperrors "spendsense/internal/errors"
	"spendsense/internal/gamification"
	"spendsense/internal/logger"
	"spendsense/internal/models"
)

// gamificationService persists the streak and badge evaluators' results.
type gamificationService struct {
	db  *gorm.DB
	now Clock
}

// NewGamificationService creates a new GamificationServicer.
func NewGamificationService(db *gorm.DB, clock Clock) GamificationServicer {
	if clock == nil {
		clock = UTCClock
	}
	return &gamificationService{db: db, now: clock}
}

// RecordActivity applies one activity event: the streak and discipline update
// followed by a badge check. It must be called after the triggering expense
// is stored so that the month total includes it.
func (s *gamificationService) RecordActivity(userID string) (*ActivityResult, error) {
	now := s.now()
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	expenses, err := expensesInWindow(s.db, userID, analytics.MonthOf(now))
	if err != nil {
		return nil, err
	}
	spent := analytics.TotalSpent(expenses)

	next, outcome := gamification.UpdateStreak(user.Gamification, user.MonthlyAllowance, spent, now)
	lastActive := next.LastActiveDate.UTC()
	err = s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"saving_streak":           next.SavingStreak,
		"longest_streak":          next.LongestStreak,
		"budget_discipline_score": next.BudgetDisciplineScore,
		"last_active_date":        lastActive,
	}).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	next.LastActiveDate = &lastActive
	user.Gamification = next

	logger.Named("gamification").Debugw("streak evaluated",
		"user_id", userID,
		"skipped", outcome.Skipped,
		"on_pace", outcome.OnPace,
		"streak", next.SavingStreak,
		"score", next.BudgetDisciplineScore,
	)

	newBadges, err := s.CheckBadges(userID)
	if err != nil {
		return nil, err
	}
	return &ActivityResult{User: user, Outcome: outcome, NewBadges: newBadges}, nil
}

func (s *gamificationService) earnedBadges(userID string) ([]models.UserBadge, error) {
	var rows []models.UserBadge
	if err := s.db.Where("user_id = ?", userID).Order("earned_at ASC").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

func (s *gamificationService) snapshot(user *models.User, now time.Time) (gamification.Snapshot, error) {
	snap := gamification.Snapshot{
		Now:              now,
		MonthlyAllowance: user.MonthlyAllowance,
		SavingStreak:     user.SavingStreak,
	}

	if err := s.db.Model(&models.Expense{}).Where("user_id = ?", user.ID).Count(&snap.ExpenseCount).Error; err != nil {
		return snap, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	current := analytics.MonthOf(now)
	thisMonth, err := expensesInWindow(s.db, user.ID, current)
	if err != nil {
		return snap, err
	}
	snap.CurrentMonthSpent = analytics.TotalSpent(thisMonth)

	lastMonth, err := expensesInWindow(s.db, user.ID, current.Previous())
	if err != nil {
		return snap, err
	}
	snap.PreviousMonthSpent = analytics.TotalSpent(lastMonth)

	var oldest models.Expense
	err = s.db.Select("date").Where("user_id = ?", user.ID).Order("date ASC").Take(&oldest).Error
	switch {
	case err == nil:
		d := oldest.Date
		snap.OldestExpenseDate = &d
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return snap, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return snap, nil
}

// CheckBadges evaluates every badge the user has not earned yet and stores
// the ones that now hold. Rows are insert-only, so a badge is never
// re-awarded or re-dated.
func (s *gamificationService) CheckBadges(userID string) ([]models.BadgeID, error) {
	now := s.now()
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.earnedBadges(userID)
	if err != nil {
		return nil, err
	}
	earned := make(map[models.BadgeID]bool, len(rows))
	for _, r := range rows {
		earned[r.BadgeID] = true
	}

	snap, err := s.snapshot(user, now)
	if err != nil {
		return nil, err
	}

	awarded := make([]models.BadgeID, 0)
	for _, id := range gamification.Evaluate(snap, earned) {
		row := models.UserBadge{UserID: userID, BadgeID: id, EarnedAt: now.UTC()}
		res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		// A concurrent request may have inserted it first.
		if res.RowsAffected == 1 {
			awarded = append(awarded, id)
		}
	}

	if len(awarded) > 0 {
		logger.Named("gamification").Infow("badges awarded", "user_id", userID, "badges", awarded)
	}
	return awarded, nil
}

// GetBadges lists the user's earned badges, oldest first.
func (s *gamificationService) GetBadges(userID string) ([]EarnedBadge, error) {
	if _, err := findUser(s.db, userID); err != nil {
		return nil, err
	}
	rows, err := s.earnedBadges(userID)
	if err != nil {
		return nil, err
	}

	out := make([]EarnedBadge, 0, len(rows))
	for _, r := range rows {
		b := EarnedBadge{ID: r.BadgeID, Name: string(r.BadgeID), EarnedAt: r.EarnedAt}
		if def, ok := gamification.Lookup(r.BadgeID); ok {
			b.Name = def.Name
			b.Description = def.Description
		}
		out = append(out, b)
	}
	return out, nil
}

// GetAvailableBadges returns the whole catalogue with the user's progress.
func (s *gamificationService) GetAvailableBadges(userID string) ([]BadgeStatus, error) {
	if _, err := findUser(s.db, userID); err != nil {
		return nil, err
	}
	rows, err := s.earnedBadges(userID)
	if err != nil {
		return nil, err
	}
	earnedAt := make(map[models.BadgeID]time.Time, len(rows))
	for _, r := range rows {
		earnedAt[r.BadgeID] = r.EarnedAt
	}

	out := make([]BadgeStatus, 0, len(gamification.Definitions))
	for _, def := range gamification.Definitions {
		st := BadgeStatus{ID: def.ID, Name: def.Name, Description: def.Description}
		if at, ok := earnedAt[def.ID]; ok {
			at := at
			st.Earned = true
			st.EarnedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// GetStreak reports streak state and today's pace. It never modifies the user.
func (s *gamificationService) GetStreak(userID string) (*StreakStatus, error) {
	now := s.now()
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	month := analytics.MonthOf(now)
	expenses, err := expensesInWindow(s.db, userID, month)
	if err != nil {
		return nil, err
	}

	today := month.DayKey(now)
	todaySpent := decimal.Zero
	for _, e := range expenses {
		if month.DayKey(e.Date) == today {
			todaySpent = todaySpent.Add(e.Amount)
		}
	}

	dailyBudget := user.MonthlyAllowance.Div(decimal.NewFromInt(int64(month.DaysInMonth()))).Round(2)
	return &StreakStatus{
		CurrentStreak:         user.SavingStreak,
		LongestStreak:         user.LongestStreak,
		BudgetDisciplineScore: user.BudgetDisciplineScore,
		TodaySpent:            todaySpent,
		DailyBudget:           dailyBudget,
		IsWithinBudget:        !user.BudgetConfigured() || todaySpent.LessThanOrEqual(dailyBudget),
		ExpectedSpendingByNow: gamification.ExpectedSpendingByNow(user.MonthlyAllowance, now).Round(2),
		MonthSpent:            analytics.TotalSpent(expenses),
		LastActiveDate:        user.LastActiveDate,
	}, nil
}
