package services

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/recurrence"
	"fintrack/internal/uuid"
)

// seriesBatchSize bounds the rows per INSERT when materializing a series.
const seriesBatchSize = 100

// Column limits of the transactions table.
const (
	maxDescriptionLength = 200
	maxNotesLength       = 500
	amountScale          = 2
)

// maxAmount is the first value that no longer fits decimal(12,2).
var maxAmount = decimal.New(1, 10)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction stores a transaction. A recurring request also stores
// every generated instance; the parent and its instances share one group ID
// and are inserted in a single database transaction.
func (s *transactionService) CreateTransaction(userID string, input TransactionInput) (*models.Transaction, int, error) {
	description := strings.TrimSpace(input.Description)
	if err := validateAmount(input.Amount); err != nil {
		return nil, 0, err
	}
	if err := validateDescription(description); err != nil {
		return nil, 0, err
	}
	if err := validateNotes(input.Notes); err != nil {
		return nil, 0, err
	}
	if input.Type != models.TransactionTypeIncome && input.Type != models.TransactionTypeExpense {
		return nil, 0, apperrors.WithField(apperrors.ErrInvalidInput, "type", "type must be income or expense")
	}
	if input.Date.IsZero() {
		return nil, 0, apperrors.WithField(apperrors.ErrInvalidInput, "date", "date is required")
	}

	category, err := s.ownedCategory(userID, input.CategoryID)
	if err != nil {
		return nil, 0, err
	}
	if string(category.Type) != string(input.Type) {
		return nil, 0, apperrors.ErrTypeMismatch
	}

	parent := models.Transaction{
		UserID:      userID,
		CategoryID:  category.ID,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: description,
		Date:        input.Date,
		Notes:       input.Notes,
	}

	var dates []models.Date
	if input.IsRecurring {
		if input.RecurringFrequency == nil || *input.RecurringFrequency == "" {
			return nil, 0, apperrors.ErrFrequencyRequired
		}
		dates, err = recurrence.Generate(input.Date, *input.RecurringFrequency, input.RecurringEndDate)
		if err != nil {
			return nil, 0, apperrors.WithField(apperrors.ErrInvalidInput, "recurring_frequency", err.Error())
		}

		groupID := uuid.NewGroupID()
		parent.IsRecurring = true
		parent.RecurringFrequency = input.RecurringFrequency
		parent.RecurringEndDate = input.RecurringEndDate
		parent.RecurringGroupID = &groupID
	}

	rows := make([]models.Transaction, 0, len(dates)+1)
	rows = append(rows, parent)
	for _, d := range dates {
		instance := parent
		instance.Date = d
		rows = append(rows, instance)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, seriesBatchSize).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, 0, apperrors.ErrCategoryNotFound
		}
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created := rows[0]
	created.Category = category
	return &created, len(dates), nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.WithField(apperrors.ErrInvalidInput, "amount", "amount must not be negative")
	}
	if !amount.Equal(amount.Truncate(amountScale)) {
		return apperrors.WithField(apperrors.ErrInvalidInput, "amount", "amount must have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return apperrors.WithField(apperrors.ErrInvalidInput, "amount", "amount must be less than 10000000000")
	}
	return nil
}

func validateDescription(description string) error {
	if description == "" {
		return apperrors.WithField(apperrors.ErrInvalidInput, "description", "description is required")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return apperrors.WithField(apperrors.ErrInvalidInput, "description", "description must be at most 200 characters")
	}
	return nil
}

func validateNotes(notes *string) error {
	if notes != nil && utf8.RuneCountInString(*notes) > maxNotesLength {
		return apperrors.WithField(apperrors.ErrInvalidInput, "notes", "notes must be at most 500 characters")
	}
	return nil
}

// ownedCategory loads a category of the user, reporting a missing or
// foreign one as not found.
func (s *transactionService) ownedCategory(userID, categoryID string) (*models.Category, error) {
	if categoryID == "" {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "category_id", "category_id is required")
	}
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// applyFilter adds the filter's conditions to a query already scoped to
// the user's transactions.
func applyFilter(query *gorm.DB, filter TransactionFilter) *gorm.DB {
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.RecurringGroupID != nil {
		query = query.Where("recurring_group_id = ?", *filter.RecurringGroupID)
	}
	return query
}

// GetUserTransactions retrieves a page of the user's transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	base := applyFilter(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)

	result, err := pagination.Find[models.Transaction](base, page, func(db *gorm.DB) *gorm.DB {
		return db.Preload("Category").Order("date DESC").Order("created_at DESC")
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// ListTransactions returns every matching transaction in date order with
// its category loaded.
func (s *transactionService) ListTransactions(userID string, filter TransactionFilter) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := applyFilter(s.db.Where("user_id = ?", userID), filter).
		Preload("Category").
		Order("date ASC").Order("created_at ASC").
		Find(&txs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", transactionID, userID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

// UpdateTransaction changes the supplied fields of one transaction. Other
// rows of its series are not touched.
func (s *transactionService) UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	existing, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if update.CategoryID != nil && *update.CategoryID != existing.CategoryID {
		category, err := s.ownedCategory(userID, *update.CategoryID)
		if err != nil {
			return nil, err
		}
		if string(category.Type) != string(existing.Type) {
			return nil, apperrors.ErrTypeMismatch
		}
		updates["category_id"] = category.ID
	}
	if update.Amount != nil {
		if err := validateAmount(*update.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *update.Amount
	}
	if update.Description != nil {
		description := strings.TrimSpace(*update.Description)
		if err := validateDescription(description); err != nil {
			return nil, err
		}
		updates["description"] = description
	}
	if update.Date != nil {
		if update.Date.IsZero() {
			return nil, apperrors.WithField(apperrors.ErrInvalidInput, "date", "date is required")
		}
		updates["date"] = *update.Date
	}
	switch {
	case update.ClearNotes:
		updates["notes"] = nil
	case update.Notes != nil:
		if err := validateNotes(update.Notes); err != nil {
			return nil, err
		}
		updates["notes"] = *update.Notes
	}

	if len(updates) == 0 {
		return existing, nil
	}

	err = s.db.Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", transactionID, userID).
		Updates(updates).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetTransactionByID(userID, transactionID)
}

// DeleteTransaction deletes one transaction, or with deleteSeries the
// transaction and every later row of its recurring series.
func (s *transactionService) DeleteTransaction(userID, transactionID string, deleteSeries bool) (int64, error) {
	target, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return 0, err
	}

	query := s.db.Where("user_id = ?", userID)
	if deleteSeries && target.RecurringGroupID != nil {
		query = query.Where("recurring_group_id = ? AND date >= ?", *target.RecurringGroupID, target.Date)
	} else {
		query = query.Where("id = ?", target.ID)
	}

	result := query.Delete(&models.Transaction{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

// BulkDeleteTransactions deletes the listed transactions that belong to the
// user in one statement. Unknown and foreign IDs are ignored.
func (s *transactionService) BulkDeleteTransactions(userID string, ids []string) (int64, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if uuid.IsValid(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	result := s.db.Where("user_id = ? AND id IN ?", userID, valid).Delete(&models.Transaction{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}
