package forecast

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(t models.TransactionType, amount string, y int, m time.Month, d int, recurring bool) models.Transaction {
	return models.Transaction{
		Type:        t,
		Amount:      dec(amount),
		Date:        models.NewDate(y, m, d),
		IsRecurring: recurring,
	}
}

// householdYear has a recurring salary and rent every month of 2026 plus
// one-off spending in the first quarter and in April.
func householdYear() []models.Transaction {
	var txs []models.Transaction
	for m := time.January; m <= time.December; m++ {
		txs = append(txs,
			row(models.TransactionTypeIncome, "3000", 2026, m, 1, true),
			row(models.TransactionTypeExpense, "1000", 2026, m, 1, true),
		)
	}
	return append(txs,
		row(models.TransactionTypeExpense, "600", 2026, time.January, 10, false),
		row(models.TransactionTypeExpense, "400", 2026, time.February, 10, false),
		row(models.TransactionTypeExpense, "500", 2026, time.March, 10, false),
		row(models.TransactionTypeExpense, "200", 2026, time.April, 10, false),
		row(models.TransactionTypeExpense, "100", 2026, time.April, 20, true),
		row(models.TransactionTypeExpense, "999", 2026, time.April, 25, false),
	)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, context ...string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s got %s %v", want, got.String(), context)
}

func TestProject_Baseline(t *testing.T) {
	today := models.NewDate(2026, time.April, 15)
	p := Project(Input{Year: 2026, Today: today, Transactions: householdYear()})

	require.Len(t, p.Baseline, 12)
	assert.Nil(t, p.Simulated)
	assert.Nil(t, p.SimulatedTotals)
	assertDec(t, "500", p.NonRecurringExpenseAvg)

	jan := p.Baseline[0]
	assert.Equal(t, StatusPast, jan.Status)
	assert.Equal(t, "Jan", jan.MonthName)
	assertDec(t, "3000", jan.Income)
	assertDec(t, "1600", jan.Expense)
	assertDec(t, "1400", jan.Cumulative)

	apr := p.Baseline[3]
	assert.Equal(t, StatusCurrent, apr.Status)
	assertDec(t, "3000", apr.Income)
	assertDec(t, "1300", apr.Expense, "actual to date plus unrealized recurring")
	assertDec(t, "6200", apr.Cumulative)

	may := p.Baseline[4]
	assert.Equal(t, StatusFuture, may.Status)
	assertDec(t, "3000", may.Income)
	assertDec(t, "1500", may.Expense, "recurring plus average")
	assertDec(t, "7700", may.Cumulative)

	assertDec(t, "18200", p.Baseline[11].Cumulative)
	assertDec(t, "18200", p.BaselineTotals.Net)
}

func TestProject_CumulativeInvariant(t *testing.T) {
	p := Project(Input{Year: 2026, Today: models.NewDate(2026, time.April, 15), Transactions: householdYear()})

	assert.True(t, p.Baseline[0].Cumulative.Equal(p.Baseline[0].Net))
	for i := 1; i < len(p.Baseline); i++ {
		want := p.Baseline[i-1].Cumulative.Add(p.Baseline[i].Net)
		assert.True(t, want.Equal(p.Baseline[i].Cumulative), "month %d", i+1)
	}
}

func TestProject_Scenarios(t *testing.T) {
	today := models.NewDate(2026, time.April, 15)
	p := Project(Input{
		Year:         2026,
		Today:        today,
		Transactions: householdYear(),
		Scenarios: []Scenario{
			{Name: "raise", MonthlyAmount: dec("300"), Active: true},
			{Name: "gym", MonthlyAmount: dec("-100"), Active: true},
			{Name: "car", MonthlyAmount: dec("-50"), Active: false},
		},
	})

	require.Len(t, p.Simulated, 12)
	require.NotNil(t, p.SimulatedTotals)
	assert.Equal(t, 2, p.ActiveScenarios)

	assert.True(t, p.Simulated[2].Net.Equal(p.Baseline[2].Net), "past months are unchanged")

	apr := p.Simulated[3]
	assertDec(t, "3150", apr.Income, "half the month remains")
	assertDec(t, "1350", apr.Expense)
	assertDec(t, "6300", apr.Cumulative)

	may := p.Simulated[4]
	assertDec(t, "3300", may.Income)
	assertDec(t, "1600", may.Expense)
	assertDec(t, "8000", may.Cumulative)

	assertDec(t, "18200", p.Baseline[11].Cumulative, "baseline unaffected")
}

func TestProject_EmptyData(t *testing.T) {
	p := Project(Input{Year: 2027, Today: models.NewDate(2026, time.April, 15)})
	require.Len(t, p.Baseline, 12)
	for _, m := range p.Baseline {
		assert.Equal(t, StatusFuture, m.Status)
		assert.True(t, m.Cumulative.IsZero())
	}
}

func TestNonRecurringExpenseAverage(t *testing.T) {
	t.Run("skips_months_without_income", func(t *testing.T) {
		txs := []models.Transaction{
			row(models.TransactionTypeExpense, "5000", 2025, time.December, 3, false),
			row(models.TransactionTypeIncome, "100", 2025, time.November, 1, false),
			row(models.TransactionTypeExpense, "300", 2025, time.November, 2, false),
		}
		avg := NonRecurringExpenseAverage(txs, models.NewDate(2026, time.January, 15))
		assertDec(t, "300", avg)
	})

	t.Run("uses_three_most_recent", func(t *testing.T) {
		var txs []models.Transaction
		for m, spend := range map[time.Month]string{
			time.January: "1000", time.February: "100", time.March: "200", time.April: "300",
		} {
			txs = append(txs,
				row(models.TransactionTypeIncome, "1", 2026, m, 1, false),
				row(models.TransactionTypeExpense, spend, 2026, m, 2, false),
			)
		}
		avg := NonRecurringExpenseAverage(txs, models.NewDate(2026, time.May, 2))
		assertDec(t, "200", avg)
	})

	t.Run("excludes_recurring_and_current_month", func(t *testing.T) {
		txs := []models.Transaction{
			row(models.TransactionTypeIncome, "1", 2026, time.March, 1, false),
			row(models.TransactionTypeExpense, "800", 2026, time.March, 1, true),
			row(models.TransactionTypeExpense, "90", 2026, time.March, 2, false),
			row(models.TransactionTypeIncome, "1", 2026, time.April, 1, false),
			row(models.TransactionTypeExpense, "5000", 2026, time.April, 2, false),
		}
		avg := NonRecurringExpenseAverage(txs, models.NewDate(2026, time.April, 20))
		assertDec(t, "90", avg)
	})

	t.Run("none_qualify", func(t *testing.T) {
		assert.True(t, NonRecurringExpenseAverage(nil, models.NewDate(2026, time.April, 1)).IsZero())
	})
}

func TestWindow(t *testing.T) {
	from, to := Window(2026, models.NewDate(2026, time.April, 15))
	assert.Equal(t, "2025-04-01", from.String())
	assert.Equal(t, "2026-12-31", to.String())

	from, _ = Window(2020, models.NewDate(2026, time.April, 15))
	assert.Equal(t, "2020-01-01", from.String())
}
