package forecast

import (
	"math"

	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/models"
)

// Pace compares spending progress with elapsed time in the budget month.
type Pace string

const (
	PaceUnder   Pace = "under"
	PaceOnTrack Pace = "on_track"
	PaceOver    Pace = "over"
)

// Level is the alert severity of a budget.
type Level string

const (
	LevelOK       Level = "ok"
	LevelWarning  Level = "warning"
	LevelDanger   Level = "danger"
	LevelExceeded Level = "exceeded"
)

// Policy holds the pace band and alert thresholds, all in percent.
type Policy struct {
	PaceBand    float64
	WarningPct  float64
	DangerPct   float64
	ExceededPct float64
}

// DefaultPolicy returns a 5 point pace band and 80/90/100 alert thresholds.
func DefaultPolicy() Policy {
	return Policy{PaceBand: 5, WarningPct: 80, DangerPct: 90, ExceededPct: 100}
}

// BudgetPace is the pace assessment of one budget.
type BudgetPace struct {
	MonthProgressPct float64         `json:"month_progress_pct"`
	ExpectedSpend    decimal.Decimal `json:"expected_spend"`
	Pace             Pace            `json:"pace"`
	DaysToOverage    *int            `json:"days_to_overage"`
	Level            Level           `json:"level"`
}

// DaysElapsed returns how many days of the budget month have passed: all of
// them for past months, today's day for the current month, none for future
// months.
func DaysElapsed(year, month int, today models.Date) int {
	_, last := aggregate.PeriodBounds(year, month)
	switch StatusOf(year, month, today) {
	case StatusPast:
		return last.Day()
	case StatusCurrent:
		return today.Day()
	}
	return 0
}

// Level maps a percentage spent onto the alert thresholds.
func (p Policy) Level(percentageSpent float64) Level {
	switch {
	case percentageSpent >= p.ExceededPct:
		return LevelExceeded
	case percentageSpent >= p.DangerPct:
		return LevelDanger
	case percentageSpent >= p.WarningPct:
		return LevelWarning
	}
	return LevelOK
}

// Evaluate assesses a budget of amount for (year, month) with spent so far.
func (p Policy) Evaluate(year, month int, amount, spent decimal.Decimal, today models.Date) BudgetPace {
	_, last := aggregate.PeriodBounds(year, month)
	daysInMonth := last.Day()
	elapsed := DaysElapsed(year, month, today)

	progress := float64(elapsed) / float64(daysInMonth) * 100
	bp := BudgetPace{
		MonthProgressPct: math.Round(progress*100) / 100,
		ExpectedSpend: amount.Mul(decimal.NewFromInt(int64(elapsed))).
			Div(decimal.NewFromInt(int64(daysInMonth))).Round(2),
	}

	if !amount.IsPositive() {
		bp.Pace = PaceOnTrack
		bp.Level = LevelOK
		if spent.IsPositive() {
			bp.Pace = PaceOver
			bp.Level = LevelExceeded
		}
		return bp
	}

	spentPct := spent.Div(amount).Mul(decimal.NewFromInt(100)).InexactFloat64()
	switch {
	case spentPct > progress+p.PaceBand:
		bp.Pace = PaceOver
	case spentPct < progress-p.PaceBand:
		bp.Pace = PaceUnder
	default:
		bp.Pace = PaceOnTrack
	}
	bp.Level = p.Level(spentPct)

	if StatusOf(year, month, today) == StatusCurrent && elapsed > 0 &&
		spent.IsPositive() && spent.LessThan(amount) {
		daily := spent.Div(decimal.NewFromInt(int64(elapsed)))
		days := int(amount.Sub(spent).Div(daily).Ceil().IntPart())
		if elapsed+days <= daysInMonth {
			bp.DaysToOverage = &days
		}
	}
	return bp
}
