// Package forecast projects a year of income and expense from actual,
// recurring and average spending, applies what-if scenarios, and judges how
// fast budgets are being consumed.
package forecast

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/models"
)

// Status tells whether a projected month is history, in progress or ahead.
type Status string

const (
	StatusPast    Status = "past"
	StatusCurrent Status = "current"
	StatusFuture  Status = "future"
)

const (
	// averageWindow is how many qualifying months feed the spending average.
	averageWindow = 3
	// LookbackMonths is how far back qualifying months are searched.
	LookbackMonths = 12
)

// Scenario is a what-if adjustment applied to every month from today on.
// Positive amounts are extra income, negative amounts extra expense.
type Scenario struct {
	Name          string          `json:"name"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	Active        bool            `json:"active"`
}

// Month is one projected month.
type Month struct {
	Month      int             `json:"month"`
	MonthName  string          `json:"month_name"`
	Status     Status          `json:"status"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Net        decimal.Decimal `json:"net"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// Totals sums a projected series.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// Projection is the forecast for one calendar year. Simulated is present
// only when at least one scenario is active.
type Projection struct {
	Year                   int             `json:"year"`
	NonRecurringExpenseAvg decimal.Decimal `json:"non_recurring_expense_avg"`
	Baseline               []Month         `json:"baseline"`
	BaselineTotals         Totals          `json:"baseline_totals"`
	Simulated              []Month         `json:"simulated,omitempty"`
	SimulatedTotals        *Totals         `json:"simulated_totals,omitempty"`
	ActiveScenarios        int             `json:"active_scenarios"`
}

// Input holds everything a projection needs. Transactions must cover the
// target year and the LookbackMonths before today's month.
type Input struct {
	Year         int
	Today        models.Date
	Transactions []models.Transaction
	Scenarios    []Scenario
}

type monthKey struct{ year, month int }

// monthStats accumulates one calendar month of rows.
type monthStats struct {
	income, expense                   decimal.Decimal
	incomeToDate, expenseToDate       decimal.Decimal
	recurringIncome, recurringExpense decimal.Decimal
	recurringIncomeToDate             decimal.Decimal
	recurringExpenseToDate            decimal.Decimal
}

func newMonthStats() *monthStats {
	return &monthStats{
		income: decimal.Zero, expense: decimal.Zero,
		incomeToDate: decimal.Zero, expenseToDate: decimal.Zero,
		recurringIncome: decimal.Zero, recurringExpense: decimal.Zero,
		recurringIncomeToDate: decimal.Zero, recurringExpenseToDate: decimal.Zero,
	}
}

func collect(txs []models.Transaction, today models.Date) map[monthKey]*monthStats {
	stats := make(map[monthKey]*monthStats)
	for i := range txs {
		tx := &txs[i]
		k := monthKey{tx.Date.Year(), int(tx.Date.Month())}
		s, ok := stats[k]
		if !ok {
			s = newMonthStats()
			stats[k] = s
		}
		realized := !tx.Date.After(today)
		switch tx.Type {
		case models.TransactionTypeIncome:
			s.income = s.income.Add(tx.Amount)
			if realized {
				s.incomeToDate = s.incomeToDate.Add(tx.Amount)
			}
			if tx.IsRecurring {
				s.recurringIncome = s.recurringIncome.Add(tx.Amount)
				if realized {
					s.recurringIncomeToDate = s.recurringIncomeToDate.Add(tx.Amount)
				}
			}
		case models.TransactionTypeExpense:
			s.expense = s.expense.Add(tx.Amount)
			if realized {
				s.expenseToDate = s.expenseToDate.Add(tx.Amount)
			}
			if tx.IsRecurring {
				s.recurringExpense = s.recurringExpense.Add(tx.Amount)
				if realized {
					s.recurringExpenseToDate = s.recurringExpenseToDate.Add(tx.Amount)
				}
			}
		}
	}
	return stats
}

// NonRecurringExpenseAverage averages actual minus recurring expense over the
// most recent months before today's month that recorded any income, using at
// most three such months within LookbackMonths. Months without income are
// treated as gaps in the data. It returns zero when no month qualifies.
func NonRecurringExpenseAverage(txs []models.Transaction, today models.Date) decimal.Decimal {
	return nonRecurringAverage(collect(txs, today), today)
}

func nonRecurringAverage(stats map[monthKey]*monthStats, today models.Date) decimal.Decimal {
	sum := decimal.Zero
	n := 0
	cursor := models.NewDate(today.Year(), today.Month(), 1)
	for i := 0; i < LookbackMonths && n < averageWindow; i++ {
		cursor = cursor.AddDate(0, -1, 0)
		s, ok := stats[monthKey{cursor.Year(), int(cursor.Month())}]
		if !ok || !s.income.IsPositive() {
			continue
		}
		sum = sum.Add(s.expense.Sub(s.recurringExpense))
		n++
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// StatusOf classifies (year, month) relative to today.
func StatusOf(year, month int, today models.Date) Status {
	switch {
	case year < today.Year() || (year == today.Year() && month < int(today.Month())):
		return StatusPast
	case year == today.Year() && month == int(today.Month()):
		return StatusCurrent
	default:
		return StatusFuture
	}
}

// scenarioDeltas sums active scenarios by sign: positives into income,
// magnitudes of negatives into expense.
func scenarioDeltas(scenarios []Scenario) (income, expense decimal.Decimal, active int) {
	income, expense = decimal.Zero, decimal.Zero
	for _, sc := range scenarios {
		if !sc.Active {
			continue
		}
		active++
		if sc.MonthlyAmount.IsNegative() {
			expense = expense.Add(sc.MonthlyAmount.Abs())
		} else {
			income = income.Add(sc.MonthlyAmount)
		}
	}
	return income, expense, active
}

// remainingFraction is the share of today's month still ahead.
func remainingFraction(today models.Date) decimal.Decimal {
	_, last := aggregate.PeriodBounds(today.Year(), int(today.Month()))
	days := last.Day()
	return decimal.NewFromInt(int64(days - today.Day())).Div(decimal.NewFromInt(int64(days)))
}

// Project builds the baseline, and when scenarios are active the simulated,
// series for in.Year. Cumulative balance of month N is the cumulative of
// month N-1 plus the net of month N.
func Project(in Input) Projection {
	stats := collect(in.Transactions, in.Today)
	avg := nonRecurringAverage(stats, in.Today)
	extraIncome, extraExpense, active := scenarioDeltas(in.Scenarios)
	fraction := remainingFraction(in.Today)

	p := Projection{
		Year:                   in.Year,
		NonRecurringExpenseAvg: avg,
		Baseline:               make([]Month, 0, 12),
		ActiveScenarios:        active,
	}
	if active > 0 {
		p.Simulated = make([]Month, 0, 12)
	}

	baseCum, simCum := decimal.Zero, decimal.Zero
	for m := 1; m <= 12; m++ {
		s, ok := stats[monthKey{in.Year, m}]
		if !ok {
			s = newMonthStats()
		}
		status := StatusOf(in.Year, m, in.Today)

		var income, expense decimal.Decimal
		switch status {
		case StatusPast:
			income, expense = s.income, s.expense
		case StatusCurrent:
			income = s.incomeToDate.Add(s.recurringIncome.Sub(s.recurringIncomeToDate))
			expense = s.expenseToDate.Add(s.recurringExpense.Sub(s.recurringExpenseToDate))
		case StatusFuture:
			income = s.recurringIncome
			expense = s.recurringExpense.Add(avg)
		}

		base := newMonth(m, status, income, expense)
		baseCum = baseCum.Add(base.Net)
		base.Cumulative = baseCum
		p.Baseline = append(p.Baseline, base)

		if active == 0 {
			continue
		}
		simIncome, simExpense := income, expense
		switch status {
		case StatusCurrent:
			simIncome = simIncome.Add(extraIncome.Mul(fraction).Round(2))
			simExpense = simExpense.Add(extraExpense.Mul(fraction).Round(2))
		case StatusFuture:
			simIncome = simIncome.Add(extraIncome)
			simExpense = simExpense.Add(extraExpense)
		}
		sim := newMonth(m, status, simIncome, simExpense)
		simCum = simCum.Add(sim.Net)
		sim.Cumulative = simCum
		p.Simulated = append(p.Simulated, sim)
	}

	p.BaselineTotals = sumMonths(p.Baseline)
	if active > 0 {
		t := sumMonths(p.Simulated)
		p.SimulatedTotals = &t
	}
	return p
}

func newMonth(m int, status Status, income, expense decimal.Decimal) Month {
	return Month{
		Month:     m,
		MonthName: aggregate.MonthName(m),
		Status:    status,
		Income:    income,
		Expense:   expense,
		Net:       income.Sub(expense),
	}
}

func sumMonths(months []Month) Totals {
	t := Totals{Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
	for _, m := range months {
		t.Income = t.Income.Add(m.Income)
		t.Expense = t.Expense.Add(m.Expense)
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}

// Window returns the inclusive date range of rows a projection of year
// needs: the lookback before today's month through the end of year.
func Window(year int, today models.Date) (models.Date, models.Date) {
	from := models.NewDate(today.Year(), today.Month(), 1).AddDate(0, -LookbackMonths, 0)
	if jan := models.NewDate(year, time.January, 1); jan.Before(from) {
		from = jan
	}
	return from, models.NewDate(year, time.December, 31)
}
