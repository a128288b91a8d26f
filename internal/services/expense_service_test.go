package services

import (
	"testing"
	"time"

	"spendsense/internal/models"
	"spendsense/internal/pagination"
	"spendsense/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var march10 = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestExpenseService(db *gorm.DB, now time.Time) ExpenseServicer {
	clock := testutil.FixedClock(now)
	return NewExpenseService(db, NewGamificationService(db, clock), clock)
}

func TestCreateExpense(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db, march10)
		user := testutil.CreateTestUser(t, db)

		expense, _, err := svc.CreateExpense(user.ID, decimal.RequireFromString("12.50"), models.CategoryFood, "  Lunch  ", "", march10)
		testutil.AssertNoError(t, err)

		if expense.ID == "" {
			t.Fatal("expected expense ID")
		}
		if expense.Description != "Lunch" {
			t.Errorf("expected trimmed description, got %q", expense.Description)
		}
		if expense.PaymentMethod != models.PaymentMethodCash {
			t.Errorf("expected default payment method cash, got %s", expense.PaymentMethod)
		}
		if expense.UserID != user.ID {
			t.Errorf("expected owner %s, got %s", user.ID, expense.UserID)
		}
	})

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db, march10)
		user := testutil.CreateTestUser(t, db)
		ten := decimal.NewFromInt(10)

		tests := []struct {
			name     string
			amount   decimal.Decimal
			category models.Category
			desc     string
			method   models.PaymentMethod
			date     time.Time
		}{
			{"zero_amount", decimal.Zero, models.CategoryFood, "x", "", march10},
			{"negative_amount", decimal.NewFromInt(-5), models.CategoryFood, "x", "", march10},
			{"bad_category", ten, models.Category("gadgets"), "x", "", march10},
			{"bad_method", ten, models.CategoryFood, "x", models.PaymentMethod("cheque"), march10},
			{"blank_description", ten, models.CategoryFood, "   ", "", march10},
			{"long_description", ten, models.CategoryFood, string(make([]rune, 201)), "", march10},
			{"zero_date", ten, models.CategoryFood, "x", "", time.Time{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := svc.CreateExpense(user.ID, tt.amount, tt.category, tt.desc, tt.method, tt.date)
				testutil.AssertAppError(t, err, "INVALID_INPUT")
			})
		}

		var count int64
		db.Model(&models.Expense{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no stored expenses, got %d", count)
		}
	})

	t.Run("unknown_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db, march10)

		_, _, err := svc.CreateExpense("0190a5c4-0000-7000-8000-000000000000", decimal.NewFromInt(1), models.CategoryFood, "x", "", march10)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("first_expense_awards_badges_and_streak", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db, march10)
		user := testutil.CreateTestUserWithAllowance(t, db, decimal.NewFromInt(1000))

		_, badges, err := svc.CreateExpense(user.ID, decimal.NewFromInt(100), models.CategoryFood, "Groceries", models.PaymentMethodUPI, march10)
		testutil.AssertNoError(t, err)

		testutil.AssertBadges(t, badges, models.BadgeFirstExpense, models.BadgePennyPincher)

		var reloaded models.User
		db.First(&reloaded, "id = ?", user.ID)
		if reloaded.SavingStreak != 1 || reloaded.LongestStreak != 1 {
			t.Errorf("expected streak 1/1, got %d/%d", reloaded.SavingStreak, reloaded.LongestStreak)
		}
		if reloaded.LastActiveDate == nil {
			t.Error("expected last active date to be set")
		}
	})

	t.Run("second_expense_awards_nothing_new", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db, march10)
		user := testutil.CreateTestUser(t, db)

		_, first, err := svc.CreateExpense(user.ID, decimal.NewFromInt(5), models.CategoryBills, "Water", "", march10)
		testutil.AssertNoError(t, err)
		if len(first) != 1 || first[0] != models.BadgeFirstExpense {
			t.Fatalf("expected only first_expense, got %v", first)
		}

		_, second, err := svc.CreateExpense(user.ID, decimal.NewFromInt(5), models.CategoryBills, "Power", "", march10)
		testutil.AssertNoError(t, err)
		if second == nil || len(second) != 0 {
			t.Errorf("expected empty non-nil badge list, got %v", second)
		}
	})

	t.Run("over_pace_resets_streak", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUserWithAllowance(t, db, decimal.NewFromInt(1000))
		yesterday := march10.AddDate(0, 0, -1)
		db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"saving_streak":    4,
			"longest_streak":   4,
			"last_active_date": yesterday,
		})

		svc := newTestExpenseService(db, march10)
		_, _, err := svc.CreateExpense(user.ID, decimal.NewFromInt(900), models.CategoryTravel, "Flight", models.PaymentMethodCard, march10)
		testutil.AssertNoError(t, err)

		var reloaded models.User
		db.First(&reloaded, "id = ?", user.ID)
		if reloaded.SavingStreak != 0 {
			t.Errorf("expected streak reset, got %d", reloaded.SavingStreak)
		}
		if reloaded.LongestStreak != 4 {
			t.Errorf("expected longest streak kept at 4, got %d", reloaded.LongestStreak)
		}
		if reloaded.BudgetDisciplineScore != 100 {
			t.Errorf("expected score 100 while under allowance, got %d", reloaded.BudgetDisciplineScore)
		}
	})

	t.Run("without_gamification", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db, nil, testutil.FixedClock(march10))
		user := testutil.CreateTestUser(t, db)

		_, badges, err := svc.CreateExpense(user.ID, decimal.NewFromInt(5), models.CategoryOthers, "Misc", "", march10)
		testutil.AssertNoError(t, err)
		if len(badges) != 0 {
			t.Errorf("expected no badges, got %v", badges)
		}
	})
}

func TestGetUserExpenses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestExpenseService(db, march10)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	testutil.CreateTestExpense(t, db, user.ID, models.CategoryFood, "10", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	testutil.CreateTestExpense(t, db, user.ID, models.CategoryTravel, "20", time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	testutil.CreateTestExpense(t, db, user.ID, models.CategoryFood, "30", time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC))
	testutil.CreateTestExpense(t, db, user.ID, models.CategoryFood, "40", time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC))
	testutil.CreateTestExpense(t, db, other.ID, models.CategoryFood, "99", time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))

	t.Run("all_newest_first", func(t *testing.T) {
		resp, err := svc.GetUserExpenses(user.ID, ExpenseFilter{}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if resp.TotalItems != 4 {
			t.Fatalf("expected 4 expenses, got %d", resp.TotalItems)
		}
		if !resp.Data[0].Amount.Equal(decimal.NewFromInt(30)) {
			t.Errorf("expected newest expense first, got %s", resp.Data[0].Amount)
		}
	})

	t.Run("month_filter", func(t *testing.T) {
		resp, err := svc.GetUserExpenses(user.ID, ExpenseFilter{Year: 2024, Month: 3}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 3 {
			t.Errorf("expected 3 March expenses, got %d", resp.TotalItems)
		}
	})

	t.Run("category_filter", func(t *testing.T) {
		food := models.CategoryFood
		resp, err := svc.GetUserExpenses(user.ID, ExpenseFilter{Year: 2024, Month: 3, Category: &food}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 2 {
			t.Errorf("expected 2 March food expenses, got %d", resp.TotalItems)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		resp, err := svc.GetUserExpenses(user.ID, ExpenseFilter{}, pagination.PageRequest{Page: 2, PageSize: 3})
		testutil.AssertNoError(t, err)
		if len(resp.Data) != 1 || resp.TotalPages != 2 {
			t.Errorf("expected 1 item on page 2 of 2, got %d items, %d pages", len(resp.Data), resp.TotalPages)
		}
	})

	t.Run("invalid_month", func(t *testing.T) {
		_, err := svc.GetUserExpenses(user.ID, ExpenseFilter{Year: 2024, Month: 13}, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_category", func(t *testing.T) {
		bad := models.Category("gadgets")
		_, err := svc.GetUserExpenses(user.ID, ExpenseFilter{Category: &bad}, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetExpenseByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestExpenseService(db, march10)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	e := testutil.CreateTestExpense(t, db, user.ID, models.CategoryFood, "10", march10)

	got, err := svc.GetExpenseByID(user.ID, e.ID)
	testutil.AssertNoError(t, err)
	if got.ID != e.ID {
		t.Errorf("expected %s, got %s", e.ID, got.ID)
	}

	_, err = svc.GetExpenseByID(other.ID, e.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
}

func TestUpdateExpense(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db, march10)
		user := testutil.CreateTestUser(t, db)
		e := testutil.CreateTestExpense(t, db, user.ID, models.CategoryFood, "10", march10)

		amount := decimal.RequireFromString("15.75")
		travel := models.CategoryTravel
		updated, err := svc.UpdateExpense(user.ID, e.ID, ExpenseUpdate{Amount: &amount, Category: &travel})
		testutil.AssertNoError(t, err)

		if !updated.Amount.Equal(amount) || updated.Category != travel {
			t.Errorf("unexpected update: %s %s", updated.Amount, updated.Category)
		}
		if updated.Description != e.Description {
			t.Errorf("expected description unchanged, got %q", updated.Description)
		}

		reloaded, _ := svc.GetExpenseByID(user.ID, e.ID)
		if !reloaded.Amount.Equal(amount) {
			t.Errorf("expected persisted amount %s, got %s", amount, reloaded.Amount)
		}
	})

	t.Run("does_not_touch_gamification", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db, march10)
		user := testutil.CreateTestUserWithAllowance(t, db, decimal.NewFromInt(1000))
		e := testutil.CreateTestExpense(t, db, user.ID, models.CategoryFood, "10", march10)

		amount := decimal.NewFromInt(5000)
		_, err := svc.UpdateExpense(user.ID, e.ID, ExpenseUpdate{Amount: &amount})
		testutil.AssertNoError(t, err)

		var reloaded models.User
		db.First(&reloaded, "id = ?", user.ID)
		if reloaded.LastActiveDate != nil || reloaded.BudgetDisciplineScore != 100 {
			t.Error("expected update to leave gamification state alone")
		}
	})

	t.Run("invalid_values", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db, march10)
		user := testutil.CreateTestUser(t, db)
		e := testutil.CreateTestExpense(t, db, user.ID, models.CategoryFood, "10", march10)

		zero := decimal.Zero
		_, err := svc.UpdateExpense(user.ID, e.ID, ExpenseUpdate{Amount: &zero})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		blank := " "
		_, err = svc.UpdateExpense(user.ID, e.ID, ExpenseUpdate{Description: &blank})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		bad := models.PaymentMethod("barter")
		_, err = svc.UpdateExpense(user.ID, e.ID, ExpenseUpdate{PaymentMethod: &bad})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("other_users_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestExpenseService(db, march10)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		e := testutil.CreateTestExpense(t, db, owner.ID, models.CategoryFood, "10", march10)

		amount := decimal.NewFromInt(1)
		_, err := svc.UpdateExpense(intruder.ID, e.ID, ExpenseUpdate{Amount: &amount})
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
	})
}

func TestDeleteExpense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestExpenseService(db, march10)
	owner := testutil.CreateTestUser(t, db)
	intruder := testutil.CreateTestUser(t, db)
	e := testutil.CreateTestExpense(t, db, owner.ID, models.CategoryFood, "10", march10)

	err := svc.DeleteExpense(intruder.ID, e.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")

	testutil.AssertNoError(t, svc.DeleteExpense(owner.ID, e.ID))

	_, err = svc.GetExpenseByID(owner.ID, e.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")

	err = svc.DeleteExpense(owner.ID, e.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
}
