package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/events"
	"fintrack/internal/export"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
	"fintrack/internal/uuid"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
	publisher          events.Publisher
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer, publisher events.Publisher) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		auditService:       auditService,
		publisher:          publisher,
	}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	CategoryID         string                     `json:"category_id" binding:"required,uuid"`
	Type               models.TransactionType     `json:"type" binding:"required,transaction_type"`
	Amount             *decimal.Decimal           `json:"amount" binding:"required" swaggertype:"string" example:"42.50"`
	Description        string                     `json:"description" binding:"required,min=1,max=200"`
	Date               *models.Date               `json:"date" binding:"required" swaggertype:"string" example:"2026-01-31"`
	Notes              *string                    `json:"notes" binding:"omitempty,max=500"`
	IsRecurring        bool                       `json:"is_recurring"`
	RecurringFrequency *models.RecurringFrequency `json:"recurring_frequency" binding:"omitempty,recurring_frequency"`
	RecurringEndDate   *models.Date               `json:"recurring_end_date" swaggertype:"string"`
}

// UpdateTransactionRequest represents the request payload for updating a
// transaction. Omitted fields are unchanged; notes set to null are cleared.
type UpdateTransactionRequest struct {
	CategoryID  *string          `json:"category_id" binding:"omitempty,uuid"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string"`
	Description *string          `json:"description" binding:"omitempty,min=1,max=200"`
	Date        *models.Date     `json:"date" swaggertype:"string"`
	Notes       NullableString   `json:"notes" swaggertype:"string"`
}

// BulkDeleteRequest represents the request payload for deleting several
// transactions at once.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500"`
}

// CreateTransactionResponse is returned when a transaction is created.
type CreateTransactionResponse struct {
	Transaction    *models.Transaction `json:"transaction"`
	GeneratedCount int                 `json:"generated_count"`
}

// DeleteCountResponse reports how many transactions were removed.
type DeleteCountResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

// NullableString tells an absent JSON field from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON records that the field was present.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// CreateTransaction handles the creation of a transaction
// @Summary     Create a transaction
// @Description Create an income or expense. When is_recurring is set the future instances of the series are created too.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction data"
// @Success     201 {object} CreateTransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input or type mismatch"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	tx, generated, err := h.transactionService.CreateTransaction(userID, services.TransactionInput{
		CategoryID:         req.CategoryID,
		Type:               req.Type,
		Amount:             *req.Amount,
		Description:        req.Description,
		Date:               *req.Date,
		Notes:              req.Notes,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
		RecurringEndDate:   req.RecurringEndDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreate, services.ResourceTransaction, tx.ID, c.ClientIP(), map[string]any{
		"type":            tx.Type,
		"amount":          tx.Amount.String(),
		"category_id":     tx.CategoryID,
		"generated_count": generated,
	})

	data := map[string]any{"type": tx.Type, "amount": tx.Amount.String(), "date": tx.Date.String()}
	publish(h.publisher, events.TransactionCreated, userID, tx.ID, data)
	if tx.RecurringGroupID != nil {
		publish(h.publisher, events.TransactionSeriesAdded, userID, *tx.RecurringGroupID, map[string]any{
			"frequency":       tx.RecurringFrequency,
			"generated_count": generated,
		})
	}

	c.JSON(http.StatusCreated, CreateTransactionResponse{Transaction: tx, GeneratedCount: generated})
}

// GetTransactions lists the user's transactions
// @Summary     List transactions
// @Description Get a paginated list of the user's transactions, newest first, with optional filters
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       type               query string false "income or expense"
// @Param       category_id        query string false "Category ID"
// @Param       from_date          query string false "Start date (YYYY-MM-DD)"
// @Param       to_date            query string false "End date (YYYY-MM-DD)"
// @Param       recurring_group_id query string false "Recurring series ID"
// @Param       page               query int    false "Page number (default 1)"
// @Param       page_size          query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter
	var err error

	if filter.FromDate, err = queryDate(c, "from_date"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = queryDate(c, "to_date"); err != nil {
		return filter, err
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		switch txType {
		case models.TransactionTypeIncome, models.TransactionTypeExpense:
			filter.Type = &txType
		default:
			return filter, apperrors.WithField(apperrors.ErrInvalidInput, "type", "invalid type, must be income or expense")
		}
	}

	if v := c.Query("category_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.WithField(apperrors.ErrInvalidInput, "category_id", "invalid category_id")
		}
		filter.CategoryID = &v
	}

	if v := c.Query("recurring_group_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.WithField(apperrors.ErrInvalidInput, "recurring_group_id", "invalid recurring_group_id")
		}
		filter.RecurringGroupID = &v
	}

	return filter, nil
}

// GetTransactionByID returns a single transaction
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// UpdateTransaction changes a single transaction
// @Summary     Update a transaction
// @Description Only the supplied fields change. Other instances of a recurring series are not touched.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input or type mismatch"
// @Failure     404 {object} ErrorResponse "Transaction or category not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.TransactionUpdate{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	}
	if req.Notes.Set {
		update.Notes = req.Notes.Value
		update.ClearNotes = req.Notes.Value == nil
	}

	tx, err := h.transactionService.UpdateTransaction(userID, transactionID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdate, services.ResourceTransaction, transactionID, c.ClientIP(), map[string]any{
		"amount":      tx.Amount.String(),
		"category_id": tx.CategoryID,
		"date":        tx.Date.String(),
	})

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// DeleteTransaction removes a transaction, or the rest of its series
// @Summary     Delete a transaction
// @Description Delete one transaction. With delete_series=true, every transaction of the same series dated on or after it is deleted as well.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id            path  string true  "Transaction ID"
// @Param       delete_series query bool   false "Delete this and later instances of the series"
// @Success     200 {object} DeleteCountResponse "Number of deleted transactions"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleteSeries := false
	if v := c.Query("delete_series"); v != "" {
		deleteSeries, err = strconv.ParseBool(v)
		if err != nil {
			respondWithError(c, apperrors.WithField(apperrors.ErrInvalidInput, "delete_series", "delete_series must be true or false"))
			return
		}
	}

	count, err := h.transactionService.DeleteTransaction(userID, transactionID, deleteSeries)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]any{"delete_series": deleteSeries, "deleted_count": count}
	h.auditService.Log(userID, services.AuditDelete, services.ResourceTransaction, transactionID, c.ClientIP(), changes)
	publish(h.publisher, events.TransactionDeleted, userID, transactionID, changes)

	c.JSON(http.StatusOK, DeleteCountResponse{DeletedCount: count})
}

// BulkDeleteTransactions removes several transactions in one statement
// @Summary     Delete several transactions
// @Description Unknown IDs and IDs of other users are ignored; the response counts what was actually deleted.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkDeleteRequest true "Transaction IDs"
// @Success     200 {object} DeleteCountResponse "Number of deleted transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/bulk-delete [post]
func (h *TransactionHandler) BulkDeleteTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	count, err := h.transactionService.BulkDeleteTransactions(userID, req.IDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]any{"requested": len(req.IDs), "deleted_count": count}
	h.auditService.Log(userID, services.AuditBulkDelete, services.ResourceTransaction, "", c.ClientIP(), changes)
	if count > 0 {
		publish(h.publisher, events.TransactionsBulkDelete, userID, "", changes)
	}

	c.JSON(http.StatusOK, DeleteCountResponse{DeletedCount: count})
}

// ExportTransactions downloads transactions as a spreadsheet
// @Summary     Export transactions
// @Description Download the user's transactions, oldest first, as an Excel workbook with totals. Accepts the same filters as the list.
// @Tags        transactions
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       from_date query string false "Start date (YYYY-MM-DD)"
// @Param       to_date   query string false "End date (YYYY-MM-DD)"
// @Param       type      query string false "income or expense"
// @Success     200 {file} file "Workbook"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/export [get]
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txs, err := h.transactionService.ListTransactions(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories := make(map[string]models.Category)
	for _, tx := range txs {
		if tx.Category != nil {
			categories[tx.CategoryID] = *tx.Category
		}
	}

	var buf bytes.Buffer
	if err := export.WriteTransactions(&buf, txs, categories); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(filter)))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func exportFilename(filter services.TransactionFilter) string {
	name := "transactions"
	if filter.FromDate != nil {
		name += "_" + filter.FromDate.String()
	}
	if filter.ToDate != nil {
		name += "_" + filter.ToDate.String()
	}
	return name + ".xlsx"
}
