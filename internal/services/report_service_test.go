package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/forecast"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func newTestReportService(t *testing.T, now time.Time) (*reportService, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	budgets := NewBudgetService(db, forecast.DefaultPolicy()).(*budgetService)
	budgets.now = func() time.Time { return now }
	svc := NewReportService(db, budgets).(*reportService)
	svc.now = func() time.Time { return now }
	return svc, func() { testutil.TeardownTestDB(t, db) }
}

func TestGetSummary(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		svc, done := newTestReportService(t, time.Now())
		defer done()
		user := testutil.CreateTestUser(t, svc.db)

		summary, err := svc.GetSummary(user.ID, DateRange{})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "0", summary.Balance, "balance")
		if summary.TransactionCount != 0 {
			t.Errorf("expected 0 transactions, got %d", summary.TransactionCount)
		}
	})

	t.Run("range_needs_both_ends", func(t *testing.T) {
		svc, done := newTestReportService(t, time.Now())
		defer done()
		db := svc.db
		user := testutil.CreateTestUser(t, db)
		salary := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
		food := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		testutil.CreateTestTransaction(t, db, user.ID, salary.ID, models.TransactionTypeIncome, "1000", models.NewDate(2026, time.January, 31))
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "250.50", models.NewDate(2026, time.February, 1))
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "49.50", models.NewDate(2026, time.February, 28))

		from := models.NewDate(2026, time.February, 1)
		to := models.NewDate(2026, time.February, 28)

		feb, err := svc.GetSummary(user.ID, DateRange{From: &from, To: &to})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "0", feb.TotalIncome, "income")
		testutil.AssertDecimal(t, "300", feb.TotalExpense, "expense")
		if feb.TransactionCount != 2 {
			t.Errorf("expected 2 transactions, got %d", feb.TransactionCount)
		}

		open, err := svc.GetSummary(user.ID, DateRange{From: &from})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "700", open.Balance, "balance")
		if open.TransactionCount != 3 {
			t.Errorf("expected the half-open range to be ignored, got %d transactions", open.TransactionCount)
		}
	})
}

func TestGetByCategory(t *testing.T) {
	svc, done := newTestReportService(t, time.Now())
	defer done()
	db := svc.db
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	rent := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	salary := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)

	day := models.NewDate(2026, time.May, 4)
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "25", day)
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "25", day)
	testutil.CreateTestTransaction(t, db, user.ID, rent.ID, models.TransactionTypeExpense, "150", day)
	testutil.CreateTestTransaction(t, db, user.ID, salary.ID, models.TransactionTypeIncome, "900", day)

	totals, err := svc.GetByCategory(user.ID, "", DateRange{})
	testutil.AssertNoError(t, err)

	if len(totals) != 2 {
		t.Fatalf("expected 2 expense groups, got %d", len(totals))
	}
	if totals[0].CategoryID != rent.ID || totals[0].Percentage != 75 {
		t.Errorf("expected rent first at 75%%, got %s at %v", totals[0].CategoryName, totals[0].Percentage)
	}
	if totals[1].CategoryName != food.Name || totals[1].TransactionCount != 2 {
		t.Errorf("expected food with 2 transactions, got %s with %d", totals[1].CategoryName, totals[1].TransactionCount)
	}

	_, err = svc.GetByCategory(user.ID, "transfer", DateRange{})
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestGetByCategoryTieOrder(t *testing.T) {
	svc, done := newTestReportService(t, time.Now())
	defer done()
	db := svc.db
	user := testutil.CreateTestUser(t, db)
	first := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	second := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	// Same date and amount; the second category's row is inserted first but
	// recorded later.
	day := models.NewDate(2026, time.June, 1)
	recorded := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	for _, row := range []struct {
		categoryID string
		createdAt  time.Time
	}{
		{second.ID, recorded.Add(time.Hour)},
		{first.ID, recorded},
	} {
		tx := &models.Transaction{
			UserID:      user.ID,
			CategoryID:  row.categoryID,
			Type:        models.TransactionTypeExpense,
			Amount:      decimal.NewFromInt(40),
			Description: "Tie",
			Date:        day,
		}
		tx.CreatedAt = row.createdAt
		testutil.AssertNoError(t, db.Create(tx).Error)
	}

	for i := 0; i < 3; i++ {
		totals, err := svc.GetByCategory(user.ID, "", DateRange{})
		testutil.AssertNoError(t, err)
		if len(totals) != 2 {
			t.Fatalf("expected 2 groups, got %d", len(totals))
		}
		if totals[0].CategoryID != first.ID || totals[1].CategoryID != second.ID {
			t.Errorf("call %d: expected the earlier recorded category first", i)
		}
	}
}

func TestGetMonthlyTrend(t *testing.T) {
	now := time.Date(2026, time.March, 20, 9, 0, 0, 0, time.UTC)
	svc, done := newTestReportService(t, now)
	defer done()
	db := svc.db
	user := testutil.CreateTestUser(t, db)
	salary := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
	food := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "30", models.NewDate(2026, time.March, 2))
	testutil.CreateTestTransaction(t, db, user.ID, salary.ID, models.TransactionTypeIncome, "100", models.NewDate(2026, time.January, 5))
	testutil.CreateTestTransaction(t, db, user.ID, salary.ID, models.TransactionTypeIncome, "100", models.NewDate(2025, time.June, 5))

	trend, err := svc.GetMonthlyTrend(user.ID, 0)
	testutil.AssertNoError(t, err)

	if len(trend) != 2 {
		t.Fatalf("expected Jan and Mar buckets, got %d", len(trend))
	}
	if trend[0].Month != 1 || trend[1].Month != 3 {
		t.Errorf("expected chronological order, got %d then %d", trend[0].Month, trend[1].Month)
	}
	testutil.AssertDecimal(t, "-30", trend[1].Balance, "march balance")

	_, err = svc.GetMonthlyTrend(user.ID, 61)
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestGetDashboard(t *testing.T) {
	now := time.Date(2026, time.July, 10, 9, 0, 0, 0, time.UTC)
	svc, done := newTestReportService(t, now)
	defer done()
	db := svc.db
	user := testutil.CreateTestUser(t, db)
	salary := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
	food := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	testutil.CreateTestTransaction(t, db, user.ID, salary.ID, models.TransactionTypeIncome, "2000", models.NewDate(2026, time.July, 1))
	for d := 2; d <= 7; d++ {
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "10", models.NewDate(2026, time.July, d))
	}
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "99", models.NewDate(2026, time.June, 30))
	testutil.CreateTestBudget(t, db, user.ID, food.ID, "120", 7, 2026)

	d, err := svc.GetDashboard(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	if d.Month != 7 || d.Year != 2026 {
		t.Errorf("expected 7/2026, got %d/%d", d.Month, d.Year)
	}
	testutil.AssertDecimal(t, "1940", d.Summary.Balance, "july balance")
	if len(d.ExpenseByCategory) != 1 {
		t.Errorf("expected 1 expense group, got %d", len(d.ExpenseByCategory))
	}
	if len(d.RecentTransactions) != 5 {
		t.Errorf("expected 5 recent transactions, got %d", len(d.RecentTransactions))
	}
	if len(d.MonthlyTrend) != 2 {
		t.Errorf("expected June and July in the trend, got %d", len(d.MonthlyTrend))
	}
	if len(d.Budgets) != 1 || d.Budgets[0].PercentageSpent != 50 {
		t.Errorf("expected one budget at 50%%, got %+v", d.Budgets)
	}
}

func TestGetForecast(t *testing.T) {
	now := time.Date(2026, time.April, 15, 9, 0, 0, 0, time.UTC)
	svc, done := newTestReportService(t, now)
	defer done()
	db := svc.db
	user := testutil.CreateTestUser(t, db)
	salary := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
	food := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	group := "0190d7a2-0000-7000-8000-0000000000cc"
	for m := time.January; m <= time.December; m++ {
		testutil.CreateTestRecurringTransaction(t, db, user.ID, salary.ID, models.TransactionTypeIncome, "1000", models.NewDate(2026, m, 1), group)
	}
	for m := time.January; m <= time.March; m++ {
		testutil.CreateTestTransaction(t, db, user.ID, food.ID, models.TransactionTypeExpense, "300", models.NewDate(2026, m, 10))
	}

	scenarios := []forecast.Scenario{
		{Name: "Raise", MonthlyAmount: decimal.NewFromInt(200), Active: true},
		{Name: "Gym", MonthlyAmount: decimal.NewFromInt(-50), Active: false},
	}
	p, err := svc.GetForecast(user.ID, 2026, scenarios)
	testutil.AssertNoError(t, err)

	if len(p.Baseline) != 12 || len(p.Simulated) != 12 {
		t.Fatalf("expected 12 baseline and simulated months, got %d and %d", len(p.Baseline), len(p.Simulated))
	}
	testutil.AssertDecimal(t, "300", p.NonRecurringExpenseAvg, "average")
	if p.Baseline[0].Status != forecast.StatusPast || p.Baseline[3].Status != forecast.StatusCurrent || p.Baseline[4].Status != forecast.StatusFuture {
		t.Error("unexpected month statuses")
	}
	testutil.AssertDecimal(t, "700", p.Baseline[4].Net, "may net")
	testutil.AssertDecimal(t, "900", p.Simulated[4].Net, "simulated may net")
	if p.ActiveScenarios != 1 {
		t.Errorf("expected 1 active scenario, got %d", p.ActiveScenarios)
	}

	_, err = svc.GetForecast(user.ID, 1999, nil)
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}
