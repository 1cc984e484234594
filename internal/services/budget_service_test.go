package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/forecast"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func newTestBudgetService(t *testing.T, now time.Time) (*budgetService, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := NewBudgetService(db, forecast.DefaultPolicy()).(*budgetService)
	svc.now = func() time.Time { return now }
	return svc, func() { testutil.TeardownTestDB(t, db) }
}

func TestCreateBudget(t *testing.T) {
	t.Run("valid_reports_nothing_spent", func(t *testing.T) {
		svc, done := newTestBudgetService(t, time.Now())
		defer done()
		user := testutil.CreateTestUser(t, svc.db)
		cat := testutil.CreateTestCategory(t, svc.db, user.ID, models.CategoryTypeExpense)

		budget, err := svc.CreateBudget(user.ID, cat.ID, decimal.NewFromInt(300), 3, 2026)
		testutil.AssertNoError(t, err)

		if budget.ID == "" {
			t.Fatal("expected budget ID")
		}
		testutil.AssertDecimal(t, "0", budget.Spent, "spent")
		testutil.AssertDecimal(t, "300", budget.Remaining, "remaining")
		if budget.PercentageSpent != 0 {
			t.Errorf("expected 0%%, got %d", budget.PercentageSpent)
		}
	})

	t.Run("duplicate_period", func(t *testing.T) {
		svc, done := newTestBudgetService(t, time.Now())
		defer done()
		user := testutil.CreateTestUser(t, svc.db)
		cat := testutil.CreateTestCategory(t, svc.db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, cat.ID, decimal.NewFromInt(100), 3, 2026)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateBudget(user.ID, cat.ID, decimal.NewFromInt(200), 3, 2026)
		testutil.AssertAppError(t, err, "DUPLICATE_BUDGET")

		_, err = svc.CreateBudget(user.ID, cat.ID, decimal.NewFromInt(200), 4, 2026)
		testutil.AssertNoError(t, err)
	})

	t.Run("income_category", func(t *testing.T) {
		svc, done := newTestBudgetService(t, time.Now())
		defer done()
		user := testutil.CreateTestUser(t, svc.db)
		cat := testutil.CreateTestCategory(t, svc.db, user.ID, models.CategoryTypeIncome)

		_, err := svc.CreateBudget(user.ID, cat.ID, decimal.NewFromInt(100), 3, 2026)
		testutil.AssertAppError(t, err, "INVALID_CATEGORY_TYPE")
	})

	t.Run("wrong_user_category", func(t *testing.T) {
		svc, done := newTestBudgetService(t, time.Now())
		defer done()
		user := testutil.CreateTestUser(t, svc.db)
		other := testutil.CreateTestUser(t, svc.db)
		cat := testutil.CreateTestCategory(t, svc.db, other.ID, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, cat.ID, decimal.NewFromInt(100), 3, 2026)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("invalid_period", func(t *testing.T) {
		svc, done := newTestBudgetService(t, time.Now())
		defer done()
		user := testutil.CreateTestUser(t, svc.db)
		cat := testutil.CreateTestCategory(t, svc.db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, cat.ID, decimal.NewFromInt(100), 13, 2026)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.CreateBudget(user.ID, cat.ID, decimal.NewFromInt(100), 1, 2019)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.CreateBudget(user.ID, cat.ID, decimal.NewFromInt(-1), 1, 2026)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestBudgetFigures(t *testing.T) {
	t.Run("spent_counts_only_matching_expenses", func(t *testing.T) {
		svc, done := newTestBudgetService(t, time.Now())
		defer done()
		db := svc.db
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		food := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		fun := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		otherFood := testutil.CreateTestCategory(t, db, other.ID, models.CategoryTypeExpense)

		budget := testutil.CreateTestBudget(t, db, user.ID, food.ID, "200", 3, 2026)

		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "60", models.NewDate(2026, time.March, 1))
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "40", models.NewDate(2026, time.March, 31))
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "500", models.NewDate(2026, time.April, 1))
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "500", models.NewDate(2026, time.February, 28))
		testutil.CreateTestTransaction(t, db, user.ID, fun.ID, models.TransactionTypeExpense, "500", models.NewDate(2026, time.March, 10))
		testutil.CreateTestTransaction(t, db, other.ID, otherFood.ID, models.TransactionTypeExpense, "500", models.NewDate(2026, time.March, 10))

		got, err := svc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "100", got.Spent, "spent")
		testutil.AssertDecimal(t, "100", got.Remaining, "remaining")
		if got.PercentageSpent != 50 {
			t.Errorf("expected 50%%, got %d", got.PercentageSpent)
		}

		again, err := svc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if !again.Spent.Equal(got.Spent) || again.PercentageSpent != got.PercentageSpent {
			t.Error("expected recomputation to be idempotent")
		}
	})

	t.Run("zero_amount_overspent", func(t *testing.T) {
		svc, done := newTestBudgetService(t, time.Now())
		defer done()
		db := svc.db
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "0", 6, 2026)
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "50", models.NewDate(2026, time.June, 2))

		got, err := svc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)

		if got.PercentageSpent != 0 {
			t.Errorf("expected 0%% for a zero budget, got %d", got.PercentageSpent)
		}
		testutil.AssertDecimal(t, "-50", got.Remaining, "remaining")
	})
}

func TestGetUserBudgets(t *testing.T) {
	svc, done := newTestBudgetService(t, time.Now())
	defer done()
	db := svc.db
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	otherCat := testutil.CreateTestCategory(t, db, other.ID, models.CategoryTypeExpense)

	testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100", 1, 2026)
	testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100", 12, 2025)
	testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100", 3, 2026)
	testutil.CreateTestBudget(t, db, other.ID, otherCat.ID, "100", 3, 2026)

	budgets, err := svc.GetUserBudgets(user.ID, nil, nil)
	testutil.AssertNoError(t, err)
	if len(budgets) != 3 {
		t.Fatalf("expected 3 budgets, got %d", len(budgets))
	}
	order := []string{"2026-3", "2026-1", "2025-12"}
	for i, b := range budgets {
		if got := fmt.Sprintf("%d-%d", b.Year, b.Month); got != order[i] {
			t.Errorf("position %d: expected %s, got %s", i, order[i], got)
		}
		if b.Category == nil {
			t.Error("expected category to be loaded")
		}
	}

	year := 2026
	filtered, err := svc.GetUserBudgets(user.ID, nil, &year)
	testutil.AssertNoError(t, err)
	if len(filtered) != 2 {
		t.Errorf("expected 2 budgets in 2026, got %d", len(filtered))
	}
}

func TestUpdateBudget(t *testing.T) {
	t.Run("moving_period_recomputes", func(t *testing.T) {
		svc, done := newTestBudgetService(t, time.Now())
		defer done()
		db := svc.db
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100", 1, 2026)
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, "80", models.NewDate(2026, time.February, 10))

		month := 2
		updated, err := svc.UpdateBudget(user.ID, budget.ID, BudgetUpdate{Month: &month})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "80", updated.Spent, "spent")
		if updated.PercentageSpent != 80 {
			t.Errorf("expected 80%%, got %d", updated.PercentageSpent)
		}
	})

	t.Run("collides_with_existing", func(t *testing.T) {
		svc, done := newTestBudgetService(t, time.Now())
		defer done()
		db := svc.db
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100", 1, 2026)
		second := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "100", 2, 2026)

		month := 1
		_, err := svc.UpdateBudget(user.ID, second.ID, BudgetUpdate{Month: &month})
		testutil.AssertAppError(t, err, "DUPLICATE_BUDGET")
	})
}

func TestDeleteBudget(t *testing.T) {
	svc, done := newTestBudgetService(t, time.Now())
	defer done()
	db := svc.db
	owner := testutil.CreateTestUser(t, db)
	intruder := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, owner.ID, models.CategoryTypeExpense)
	budget := testutil.CreateTestBudget(t, db, owner.ID, cat.ID, "100", 1, 2026)

	testutil.AssertAppError(t, svc.DeleteBudget(intruder.ID, budget.ID), "BUDGET_NOT_FOUND")
	testutil.AssertNoError(t, svc.DeleteBudget(owner.ID, budget.ID))
	testutil.AssertAppError(t, svc.DeleteBudget(owner.ID, budget.ID), "BUDGET_NOT_FOUND")
}

func TestGetBudgetAlerts(t *testing.T) {
	now := time.Date(2026, time.April, 15, 12, 0, 0, 0, time.UTC)
	svc, done := newTestBudgetService(t, now)
	defer done()
	db := svc.db
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	rent := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	testutil.CreateTestBudget(t, db, user.ID, food.ID, "300", 4, 2026)
	testutil.CreateTestBudget(t, db, user.ID, rent.ID, "100", 4, 2026)
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "60", models.NewDate(2026, time.April, 3))
	testutil.CreateTestTransaction(t, db, user.ID, rent.ID, models.TransactionTypeExpense, "95", models.NewDate(2026, time.April, 1))

	alerts, err := svc.GetBudgetAlerts(user.ID, 4, 2026)
	testutil.AssertNoError(t, err)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}

	byCategory := map[string]BudgetAlert{}
	for _, a := range alerts {
		byCategory[a.Budget.CategoryID] = a
	}

	if got := byCategory[food.ID].Pace; got.Pace != forecast.PaceUnder || got.Level != forecast.LevelOK {
		t.Errorf("food: expected under/ok, got %s/%s", got.Pace, got.Level)
	}
	if got := byCategory[rent.ID].Pace; got.Pace != forecast.PaceOver || got.Level != forecast.LevelDanger {
		t.Errorf("rent: expected over/danger, got %s/%s", got.Pace, got.Level)
	}
	if byCategory[food.ID].Pace.MonthProgressPct != 50 {
		t.Errorf("expected 50%% of April elapsed, got %v", byCategory[food.ID].Pace.MonthProgressPct)
	}
}
