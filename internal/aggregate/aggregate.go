// Package aggregate computes budget figures and report totals from
// transaction rows. Everything here is a pure function of its inputs so the
// same rows always produce the same numbers.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
)

var hundred = decimal.NewFromInt(100)

// PeriodBounds returns the first and last calendar day of the month, both inclusive.
func PeriodBounds(year, month int) (models.Date, models.Date) {
	start := models.NewDate(year, time.Month(month), 1)
	return start, start.AddDate(0, 1, -1)
}

// Figures are the derived values of a budget.
type Figures struct {
	Spent           decimal.Decimal `json:"spent"`
	Remaining       decimal.Decimal `json:"remaining"`
	PercentageSpent int64           `json:"percentage_spent"`
}

// BudgetFigures derives remaining (possibly negative) and the rounded
// percentage spent. A zero amount reports 0%.
func BudgetFigures(amount, spent decimal.Decimal) Figures {
	f := Figures{
		Spent:     spent,
		Remaining: amount.Sub(spent),
	}
	if amount.IsPositive() {
		f.PercentageSpent = spent.Div(amount).Mul(hundred).Round(0).IntPart()
	}
	return f
}

// SumByType adds the amounts of rows with the given type.
func SumByType(txs []models.Transaction, t models.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for i := range txs {
		if txs[i].Type == t {
			total = total.Add(txs[i].Amount)
		}
	}
	return total
}

// Summary is the income/expense overview of a set of transactions.
type Summary struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int64           `json:"transaction_count"`
}

// Summarize totals rows by type.
func Summarize(txs []models.Transaction) Summary {
	income := SumByType(txs, models.TransactionTypeIncome)
	expense := SumByType(txs, models.TransactionTypeExpense)
	return Summary{
		TotalIncome:      income,
		TotalExpense:     expense,
		Balance:          income.Sub(expense),
		TransactionCount: int64(len(txs)),
	}
}

// CategoryTotal is one row of the by-category breakdown.
type CategoryTotal struct {
	CategoryID       string          `json:"category_id"`
	CategoryName     string          `json:"category_name"`
	CategoryIcon     string          `json:"category_icon"`
	CategoryColor    string          `json:"category_color"`
	Amount           decimal.Decimal `json:"amount"`
	TransactionCount int64           `json:"transaction_count"`
	Percentage       float64         `json:"percentage"`
}

// ByCategory groups rows by category and sorts groups by amount,
// descending. Groups with equal amounts keep the order in which their
// category first appears in txs. Percentages are of the grand total,
// rounded to two places, and 0 when the total is 0. Display fields are
// filled from categories when present.
func ByCategory(txs []models.Transaction, categories map[string]models.Category) []CategoryTotal {
	groups := make([]CategoryTotal, 0)
	index := make(map[string]int)
	total := decimal.Zero

	for i := range txs {
		tx := &txs[i]
		pos, ok := index[tx.CategoryID]
		if !ok {
			pos = len(groups)
			index[tx.CategoryID] = pos
			g := CategoryTotal{CategoryID: tx.CategoryID, Amount: decimal.Zero}
			if c, found := categories[tx.CategoryID]; found {
				g.CategoryName = c.Name
				g.CategoryIcon = c.Icon
				g.CategoryColor = c.Color
			}
			groups = append(groups, g)
		}
		groups[pos].Amount = groups[pos].Amount.Add(tx.Amount)
		groups[pos].TransactionCount++
		total = total.Add(tx.Amount)
	}

	if total.IsPositive() {
		for i := range groups {
			groups[i].Percentage = groups[i].Amount.Div(total).Mul(hundred).Round(2).InexactFloat64()
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Amount.GreaterThan(groups[j].Amount)
	})
	return groups
}

// TrendPoint is one calendar month of the monthly trend.
type TrendPoint struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	MonthName string          `json:"month_name"`
	Income    decimal.Decimal `json:"income"`
	Expense   decimal.Decimal `json:"expense"`
	Balance   decimal.Decimal `json:"balance"`
}

// MonthlyTrend buckets rows by calendar month and returns the buckets in
// chronological order. Months without rows are not present.
func MonthlyTrend(txs []models.Transaction) []TrendPoint {
	type key struct{ year, month int }
	buckets := make(map[key]*TrendPoint)

	for i := range txs {
		tx := &txs[i]
		k := key{tx.Date.Year(), int(tx.Date.Month())}
		p, ok := buckets[k]
		if !ok {
			p = &TrendPoint{
				Year:      k.year,
				Month:     k.month,
				MonthName: MonthName(k.month),
				Income:    decimal.Zero,
				Expense:   decimal.Zero,
			}
			buckets[k] = p
		}
		switch tx.Type {
		case models.TransactionTypeIncome:
			p.Income = p.Income.Add(tx.Amount)
		case models.TransactionTypeExpense:
			p.Expense = p.Expense.Add(tx.Amount)
		}
	}

	points := make([]TrendPoint, 0, len(buckets))
	for _, p := range buckets {
		p.Balance = p.Income.Sub(p.Expense)
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Month < points[j].Month
	})
	return points
}

// MonthName returns the three-letter English label for month 1..12.
func MonthName(month int) string {
	return time.Month(month).String()[:3]
}
