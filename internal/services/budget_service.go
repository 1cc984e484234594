package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/aggregate"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/forecast"
	"fintrack/internal/models"
)

// MinBudgetYear is the earliest year a budget can be set for.
const MinBudgetYear = 2020

// budgetService handles budget-related business logic.
type budgetService struct {
	db     *gorm.DB
	policy forecast.Policy
	now    func() time.Time
}

// NewBudgetService creates a new BudgetServicer that judges alerts with policy.
func NewBudgetService(db *gorm.DB, policy forecast.Policy) BudgetServicer {
	return &budgetService{db: db, policy: policy, now: time.Now}
}

func validatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return apperrors.WithField(apperrors.ErrInvalidInput, "month", "month must be between 1 and 12")
	}
	if year < MinBudgetYear {
		return apperrors.WithField(apperrors.ErrInvalidInput, "year", fmt.Sprintf("year must be %d or later", MinBudgetYear))
	}
	return nil
}

// expenseCategory loads a category of the user that budgets may track.
func (s *budgetService) expenseCategory(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.Type != models.CategoryTypeExpense {
		return nil, apperrors.ErrCategoryTypeInvalid
	}
	return &category, nil
}

// ensureUnique rejects a second budget for the same category and period.
func (s *budgetService) ensureUnique(userID, exceptID, categoryID string, month, year int) error {
	query := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND month = ? AND year = ?", userID, categoryID, month, year)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateBudget
	}
	return nil
}

// CreateBudget creates a budget for an expense category. A new budget
// reports nothing spent.
func (s *budgetService) CreateBudget(userID, categoryID string, amount decimal.Decimal, month, year int) (*models.Budget, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}
	category, err := s.expenseCategory(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(userID, "", categoryID, month, year); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Month:      month,
		Year:       year,
	}

	if err := s.db.Create(budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateBudget
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	applyFigures(budget, aggregate.BudgetFigures(amount, decimal.Zero))
	budget.Category = category
	return budget, nil
}

func applyFigures(b *models.Budget, f aggregate.Figures) {
	b.Spent = f.Spent
	b.Remaining = f.Remaining
	b.PercentageSpent = f.PercentageSpent
}

// computeSpent sums the user's expense rows in the budget's category and month.
func (s *budgetService) computeSpent(b *models.Budget) (decimal.Decimal, error) {
	start, end := aggregate.PeriodBounds(b.Year, b.Month)

	var amounts []decimal.Decimal
	err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND category_id = ? AND type = ? AND date >= ? AND date <= ?",
			b.UserID, b.CategoryID, models.TransactionTypeExpense, start, end).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}

// withFigures recomputes the derived fields of b.
func (s *budgetService) withFigures(b *models.Budget) error {
	spent, err := s.computeSpent(b)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	applyFigures(b, aggregate.BudgetFigures(b.Amount, spent))
	return nil
}

// GetUserBudgets lists the user's budgets, latest period first, optionally
// restricted to a month and/or year.
func (s *budgetService) GetUserBudgets(userID string, month, year *int) ([]models.Budget, error) {
	query := s.db.Preload("Category").Where("user_id = ?", userID)
	if month != nil {
		query = query.Where("month = ?", *month)
	}
	if year != nil {
		query = query.Where("year = ?", *year)
	}

	budgets := []models.Budget{}
	if err := query.Order("year DESC").Order("month DESC").Order("created_at ASC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range budgets {
		if err := s.withFigures(&budgets[i]); err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.withFigures(&budget); err != nil {
		return nil, err
	}
	return &budget, nil
}

// UpdateBudget changes the supplied fields and returns the budget with
// figures recomputed for its possibly new category and period.
func (s *budgetService) UpdateBudget(userID, budgetID string, update BudgetUpdate) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	categoryID, month, year := budget.CategoryID, budget.Month, budget.Year
	updates := make(map[string]any)
	if update.CategoryID != nil && *update.CategoryID != categoryID {
		if _, err := s.expenseCategory(userID, *update.CategoryID); err != nil {
			return nil, err
		}
		categoryID = *update.CategoryID
		updates["category_id"] = categoryID
	}
	if update.Month != nil {
		month = *update.Month
		updates["month"] = month
	}
	if update.Year != nil {
		year = *update.Year
		updates["year"] = year
	}
	if update.Amount != nil {
		if err := validateAmount(*update.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *update.Amount
	}
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	if len(updates) == 0 {
		return budget, nil
	}
	if categoryID != budget.CategoryID || month != budget.Month || year != budget.Year {
		if err := s.ensureUnique(userID, budgetID, categoryID, month, year); err != nil {
			return nil, err
		}
	}

	err = s.db.Model(&models.Budget{}).
		Where("id = ? AND user_id = ?", budgetID, userID).
		Updates(updates).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateBudget
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetBudgetByID(userID, budgetID)
}

// DeleteBudget permanently deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	result := s.db.Where("id = ? AND user_id = ?", budgetID, userID).Delete(&models.Budget{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

// GetBudgetAlerts assesses the pace and alert level of every budget of the
// given period against today's date.
func (s *budgetService) GetBudgetAlerts(userID string, month, year int) ([]BudgetAlert, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}
	budgets, err := s.GetUserBudgets(userID, &month, &year)
	if err != nil {
		return nil, err
	}

	today := models.DateOf(s.now())
	alerts := make([]BudgetAlert, 0, len(budgets))
	for _, b := range budgets {
		alerts = append(alerts, BudgetAlert{
			Budget: b,
			Pace:   s.policy.Evaluate(b.Year, b.Month, b.Amount, b.Spent, today),
		})
	}
	return alerts, nil
}
