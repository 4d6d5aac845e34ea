package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
	"kakebo/internal/pagination"
	"kakebo/internal/services"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, auditService: auditService}
}

// SplitRequest represents one category split of an expense.
type SplitRequest struct {
	CategoryID       string                  `json:"category_id" binding:"required,uuid"`
	AllocationMethod models.AllocationMethod `json:"allocation_method" binding:"required,allocation_method"`
	AllocationValue  int64                   `json:"allocation_value" binding:"min=0"`
	CalculatedAmount *int64                  `json:"calculated_amount"`
}

// CreateExpenseRequest represents the request payload for creating an expense.
type CreateExpenseRequest struct {
	PayeeID     *string        `json:"payee_id" binding:"omitempty,uuid"`
	PayeeName   string         `json:"payee_name" binding:"max=100"`
	Amount      int64          `json:"amount" binding:"required,gt=0"`
	Date        time.Time      `json:"date" binding:"required"`
	Description string         `json:"description" binding:"max=500"`
	Splits      []SplitRequest `json:"splits" binding:"required,min=1,dive"`
}

// UpdateExpenseRequest represents the request payload for updating an expense.
type UpdateExpenseRequest struct {
	Amount      *int64         `json:"amount" binding:"omitempty,gt=0"`
	Date        *time.Time     `json:"date"`
	Description *string        `json:"description" binding:"omitempty,max=500"`
	Splits      []SplitRequest `json:"splits" binding:"omitempty,min=1,dive"`
}

func toSplitInputs(splits []SplitRequest) []services.SplitInput {
	if splits == nil {
		return nil
	}
	inputs := make([]services.SplitInput, 0, len(splits))
	for _, s := range splits {
		inputs = append(inputs, services.SplitInput{
			CategoryID:       s.CategoryID,
			AllocationMethod: s.AllocationMethod,
			AllocationValue:  s.AllocationValue,
			CalculatedAmount: s.CalculatedAmount,
		})
	}
	return inputs
}

// CreateExpense handles recording an expense.
// @Summary     Create an expense
// @Description Record an expense with category splits
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Budget ID"
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expense, err := h.expenseService.CreateExpense(userID, budgetID, req.PayeeID, req.PayeeName,
		req.Amount, req.Date, req.Description, toSplitInputs(req.Splits))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount, "splits": len(req.Splits)})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetExpenses handles listing a budget's expenses.
// @Summary     Get expenses
// @Description Get a paginated list of a budget's expenses, newest first
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id          path  string true  "Budget ID"
// @Param       category_id query string false "Filter by category"
// @Param       from        query string false "Start date, YYYY-MM-DD"
// @Param       to          query string false "End date, YYYY-MM-DD"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.ExpenseFilter
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	from, err := parseDateQuery(c, "from")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.FromDate = from
	to, err := parseDateQuery(c, "to")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.ToDate = to

	result, err := h.expenseService.GetBudgetExpenses(userID, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExpense handles retrieving a single expense.
// @Summary     Get expense by ID
// @Description Get an expense with its splits and payee
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id        path string true "Budget ID"
// @Param       expenseId path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/expenses/{expenseId} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	expenseID, err := parsePathID(c, "expenseId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, budgetID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense handles updating an expense.
// @Summary     Update an expense
// @Description Update an expense; providing splits replaces them wholesale
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path string               true "Budget ID"
// @Param       expenseId path string               true "Expense ID"
// @Param       request   body UpdateExpenseRequest true "Fields to update"
// @Success     200 {object} models.Expense "Expense updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/expenses/{expenseId} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	expenseID, err := parsePathID(c, "expenseId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expense, err := h.expenseService.UpdateExpense(userID, budgetID, expenseID,
		req.Amount, req.Date, req.Description, toSplitInputs(req.Splits))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_EXPENSE", "expense", expenseID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount})

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense handles deleting an expense.
// @Summary     Delete an expense
// @Description Delete an expense and its splits
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id        path string true "Budget ID"
// @Param       expenseId path string true "Expense ID"
// @Success     204 "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/expenses/{expenseId} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	expenseID, err := parsePathID(c, "expenseId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(userID, budgetID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
