package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/services"
)

// PayeeHandler handles payee-related requests.
type PayeeHandler struct {
	payeeService services.PayeeServicer
}

// NewPayeeHandler creates a new PayeeHandler.
func NewPayeeHandler(payeeService services.PayeeServicer) *PayeeHandler {
	return &PayeeHandler{payeeService: payeeService}
}

// PayeeRequest represents the request payload for creating or renaming a payee.
type PayeeRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CreatePayee handles adding a payee to a budget.
// @Summary     Create a payee
// @Description Add a payee to a budget; an existing name is returned as-is
// @Tags        payees
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string       true "Budget ID"
// @Param       request body PayeeRequest true "Payee details"
// @Success     201 {object} models.Payee "Payee"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/payees [post]
func (h *PayeeHandler) CreatePayee(c *gin.Context) {
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

	var req PayeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	payee, err := h.payeeService.CreatePayee(userID, budgetID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payee": payee})
}

// GetPayees handles listing a budget's payees.
// @Summary     Get payees
// @Description List a budget's payees sorted by name
// @Tags        payees
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {array} models.Payee "Payees"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/payees [get]
func (h *PayeeHandler) GetPayees(c *gin.Context) {
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

	payees, err := h.payeeService.GetBudgetPayees(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payees": payees})
}

// UpdatePayee handles renaming a payee.
// @Summary     Update a payee
// @Description Rename a payee
// @Tags        payees
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string       true "Budget ID"
// @Param       payeeId path string       true "Payee ID"
// @Param       request body PayeeRequest true "New name"
// @Success     200 {object} models.Payee "Payee updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Payee not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/payees/{payeeId} [put]
func (h *PayeeHandler) UpdatePayee(c *gin.Context) {
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
	payeeID, err := parsePathID(c, "payeeId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PayeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	payee, err := h.payeeService.UpdatePayee(userID, budgetID, payeeID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payee": payee})
}

// DeletePayee handles deleting a payee.
// @Summary     Delete a payee
// @Description Delete a payee; existing expenses keep their reference
// @Tags        payees
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string true "Budget ID"
// @Param       payeeId path string true "Payee ID"
// @Success     204 "Payee deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Payee not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/payees/{payeeId} [delete]
func (h *PayeeHandler) DeletePayee(c *gin.Context) {
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
	payeeID, err := parsePathID(c, "payeeId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.payeeService.DeletePayee(userID, budgetID, payeeID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
