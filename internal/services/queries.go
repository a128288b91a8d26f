package services

import (
	"errors"

	"gorm.io/gorm"

	"spendsense/internal/analytics"
	apperrors "spendsense/internal/errors"
	"spendsense/internal/models"
)

// resolveWindow picks the month to report on. Zero year or month default to
// the current one in clock's location.
func resolveWindow(clock Clock, year, month int) (analytics.Window, error) {
	now := clock()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	w, err := analytics.NewWindow(year, month, now.Location())
	if err != nil {
		return analytics.Window{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return w, nil
}

// expensesInWindow loads a user's expenses dated inside w. Dates are stored in
// UTC, so the bounds are converted before querying.
func expensesInWindow(db *gorm.DB, userID string, w analytics.Window) ([]models.Expense, error) {
	var expenses []models.Expense
	err := db.Where("user_id = ? AND date >= ? AND date <= ?", userID, w.Start().UTC(), w.End().UTC()).
		Order("date ASC").
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}

func findUser(db *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}
