package services

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/forecast"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(name, email, password string, currency models.Currency) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	UpdateProfile(userID string, name *string, currency *models.Currency) (*models.User, error)
	DeleteUser(userID string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error)
	GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, name, icon, color *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionInput holds the fields of a new transaction. When IsRecurring
// is set the service also materializes the series.
type TransactionInput struct {
	CategoryID         string
	Type               models.TransactionType
	Amount             decimal.Decimal
	Description        string
	Date               models.Date
	Notes              *string
	IsRecurring        bool
	RecurringFrequency *models.RecurringFrequency
	RecurringEndDate   *models.Date
}

// TransactionUpdate holds the fields to change. Nil fields are left as they
// are; ClearNotes removes the notes.
type TransactionUpdate struct {
	CategoryID  *string
	Amount      *decimal.Decimal
	Description *string
	Date        *models.Date
	Notes       *string
	ClearNotes  bool
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate         *models.Date
	ToDate           *models.Date
	Type             *models.TransactionType
	CategoryID       *string
	RecurringGroupID *string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	// CreateTransaction returns the request's own row and how many recurring
	// instances were generated alongside it.
	CreateTransaction(userID string, input TransactionInput) (*models.Transaction, int, error)
	GetUserTransactions(userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	ListTransactions(userID string, filter TransactionFilter) ([]models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	// DeleteTransaction removes one row, or with deleteSeries every row of its
	// series dated on or after it. It returns the number of rows removed.
	DeleteTransaction(userID, transactionID string, deleteSeries bool) (int64, error)
	BulkDeleteTransactions(userID string, ids []string) (int64, error)
}

// BudgetUpdate holds the budget fields to change; nil fields are kept.
type BudgetUpdate struct {
	CategoryID *string
	Amount     *decimal.Decimal
	Month      *int
	Year       *int
}

// BudgetAlert pairs a budget and its figures with its pace assessment.
type BudgetAlert struct {
	Budget models.Budget       `json:"budget"`
	Pace   forecast.BudgetPace `json:"pace"`
}

// BudgetServicer defines the contract for budget-related business logic.
// Every budget returned carries freshly computed spent, remaining and
// percentage_spent.
type BudgetServicer interface {
	CreateBudget(userID, categoryID string, amount decimal.Decimal, month, year int) (*models.Budget, error)
	GetUserBudgets(userID string, month, year *int) ([]models.Budget, error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, update BudgetUpdate) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetAlerts(userID string, month, year int) ([]BudgetAlert, error)
}

// DateRange restricts a report to [From, To]. It applies only when both
// ends are set.
type DateRange struct {
	From *models.Date
	To   *models.Date
}

// Dashboard is the overview of the current month.
type Dashboard struct {
	Month              int                       `json:"month"`
	Year               int                       `json:"year"`
	Summary            aggregate.Summary         `json:"summary"`
	ExpenseByCategory  []aggregate.CategoryTotal `json:"expense_by_category"`
	MonthlyTrend       []aggregate.TrendPoint    `json:"monthly_trend"`
	RecentTransactions []models.Transaction      `json:"recent_transactions"`
	Budgets            []models.Budget           `json:"budgets"`
}

// ReportServicer defines the contract for read-only reports.
type ReportServicer interface {
	GetSummary(userID string, r DateRange) (*aggregate.Summary, error)
	GetByCategory(userID string, txType models.TransactionType, r DateRange) ([]aggregate.CategoryTotal, error)
	GetMonthlyTrend(userID string, months int) ([]aggregate.TrendPoint, error)
	GetDashboard(ctx context.Context, userID string) (*Dashboard, error)
	GetForecast(userID string, year int, scenarios []forecast.Scenario) (*forecast.Projection, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
