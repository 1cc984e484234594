package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"fintrack/internal/aggregate"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/forecast"
	"fintrack/internal/models"
)

// Report limits.
const (
	DefaultTrendMonths = 6
	MaxTrendMonths     = 60
	recentTransactions = 5
	minForecastYear    = 2000
	maxForecastYear    = 2100
)

// reportService computes read-only reports over a user's transactions.
type reportService struct {
	db      *gorm.DB
	budgets BudgetServicer
	now     func() time.Time
}

// NewReportService creates a new ReportServicer. budgets supplies the
// dashboard's budget figures.
func NewReportService(db *gorm.DB, budgets BudgetServicer) ReportServicer {
	return &reportService{db: db, budgets: budgets, now: time.Now}
}

func (s *reportService) today() models.Date {
	return models.DateOf(s.now())
}

// load returns the user's transactions of txType (any type when empty)
// dated within [from, to]; nil bounds are open.
func (s *reportService) load(db *gorm.DB, userID string, txType models.TransactionType, from, to *models.Date) ([]models.Transaction, error) {
	query := db.Where("user_id = ?", userID)
	if txType != "" {
		query = query.Where("type = ?", txType)
	}
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date <= ?", *to)
	}

	var txs []models.Transaction
	if err := query.Order("date ASC").Order("created_at ASC").Order("id ASC").Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

// bounds returns the range ends when both are set, otherwise nothing.
func (r DateRange) bounds() (from, to *models.Date) {
	if r.From == nil || r.To == nil {
		return nil, nil
	}
	return r.From, r.To
}

// GetSummary totals income and expense over the range, or over everything
// when the range is incomplete.
func (s *reportService) GetSummary(userID string, r DateRange) (*aggregate.Summary, error) {
	return s.summary(s.db, userID, r)
}

func (s *reportService) summary(db *gorm.DB, userID string, r DateRange) (*aggregate.Summary, error) {
	from, to := r.bounds()
	txs, err := s.load(db, userID, "", from, to)
	if err != nil {
		return nil, err
	}
	summary := aggregate.Summarize(txs)
	return &summary, nil
}

// GetByCategory groups one type of transaction by category, largest first.
func (s *reportService) GetByCategory(userID string, txType models.TransactionType, r DateRange) ([]aggregate.CategoryTotal, error) {
	return s.byCategory(s.db, userID, txType, r)
}

func (s *reportService) byCategory(db *gorm.DB, userID string, txType models.TransactionType, r DateRange) ([]aggregate.CategoryTotal, error) {
	if txType == "" {
		txType = models.TransactionTypeExpense
	}
	if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "type", "type must be income or expense")
	}

	from, to := r.bounds()
	txs, err := s.load(db, userID, txType, from, to)
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	return aggregate.ByCategory(txs, byID), nil
}

// GetMonthlyTrend buckets the last months of transactions by calendar month.
func (s *reportService) GetMonthlyTrend(userID string, months int) ([]aggregate.TrendPoint, error) {
	return s.monthlyTrend(s.db, userID, months)
}

func (s *reportService) monthlyTrend(db *gorm.DB, userID string, months int) ([]aggregate.TrendPoint, error) {
	if months == 0 {
		months = DefaultTrendMonths
	}
	if months < 1 || months > MaxTrendMonths {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "months", "months must be between 1 and 60")
	}

	today := s.today()
	from := today.AddDate(0, -months, 0)
	txs, err := s.load(db, userID, "", &from, &today)
	if err != nil {
		return nil, err
	}
	return aggregate.MonthlyTrend(txs), nil
}

// GetDashboard gathers the current month's overview. The parts are
// independent reads and run concurrently.
func (s *reportService) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	today := s.today()
	year, month := today.Year(), int(today.Month())
	start, end := aggregate.PeriodBounds(year, month)
	thisMonth := DateRange{From: &start, To: &end}

	d := &Dashboard{Month: month, Year: year}
	g, ctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(ctx)

	g.Go(func() error {
		summary, err := s.summary(db, userID, thisMonth)
		if err != nil {
			return err
		}
		d.Summary = *summary
		return nil
	})
	g.Go(func() error {
		totals, err := s.byCategory(db, userID, models.TransactionTypeExpense, thisMonth)
		d.ExpenseByCategory = totals
		return err
	})
	g.Go(func() error {
		trend, err := s.monthlyTrend(db, userID, DefaultTrendMonths)
		d.MonthlyTrend = trend
		return err
	})
	g.Go(func() error {
		recent := []models.Transaction{}
		err := db.Preload("Category").
			Where("user_id = ?", userID).
			Order("date DESC").Order("created_at DESC").
			Limit(recentTransactions).
			Find(&recent).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		d.RecentTransactions = recent
		return nil
	})
	g.Go(func() error {
		budgets, err := s.budgets.GetUserBudgets(userID, &month, &year)
		d.Budgets = budgets
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// GetForecast projects year from the user's history, recurring series and
// the given what-if scenarios.
func (s *reportService) GetForecast(userID string, year int, scenarios []forecast.Scenario) (*forecast.Projection, error) {
	if year < minForecastYear || year > maxForecastYear {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "year", "year is out of range")
	}

	today := s.today()
	from, to := forecast.Window(year, today)
	txs, err := s.load(s.db, userID, "", &from, &to)
	if err != nil {
		return nil, err
	}

	projection := forecast.Project(forecast.Input{
		Year:         year,
		Today:        today,
		Transactions: txs,
		Scenarios:    scenarios,
	})
	return &projection, nil
}
