package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
	"kakebo/internal/services"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category.
type CreateCategoryRequest struct {
	Name             string                  `json:"name" binding:"required,min=1,max=100"`
	Description      string                  `json:"description" binding:"max=500"`
	Icon             string                  `json:"icon" binding:"max=50"`
	Color            string                  `json:"color" binding:"omitempty,hex_color"`
	AllocationMethod models.AllocationMethod `json:"allocation_method" binding:"required,allocation_method"`
	AllocationValue  int64                   `json:"allocation_value" binding:"min=0"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
type UpdateCategoryRequest struct {
	Name             string                   `json:"name" binding:"omitempty,min=1,max=100"`
	Description      string                   `json:"description" binding:"omitempty,max=500"`
	Icon             string                   `json:"icon" binding:"omitempty,max=50"`
	Color            string                   `json:"color" binding:"omitempty,hex_color"`
	AllocationMethod *models.AllocationMethod `json:"allocation_method" binding:"omitempty,allocation_method"`
	AllocationValue  *int64                   `json:"allocation_value" binding:"omitempty,min=0"`
}

// CreateCategory handles creating a category within a budget.
// @Summary     Create a category
// @Description Create a new category in a budget
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Budget ID"
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Remaining allocation already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
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

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(userID, budgetID,
		req.Name, req.Description, req.Icon, req.Color, req.AllocationMethod, req.AllocationValue)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "allocation_method": req.AllocationMethod})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories handles listing a budget's categories.
// @Summary     Get categories
// @Description List a budget's categories in display order
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {array} models.Category "Categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
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

	categories, err := h.categoryService.GetBudgetCategories(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// UpdateCategory handles updating a category.
// @Summary     Update a category
// @Description Update a category's fields
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id         path string                true "Budget ID"
// @Param       categoryId path string                true "Category ID"
// @Param       request    body UpdateCategoryRequest true "Fields to update"
// @Success     200 {object} models.Category "Category updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Remaining allocation already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/categories/{categoryId} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
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
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.UpdateCategory(userID, budgetID, categoryID,
		req.Name, req.Description, req.Icon, req.Color, req.AllocationMethod, req.AllocationValue)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_CATEGORY", "category", categoryID, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category.
// @Summary     Delete a category
// @Description Delete a category; the last category of a budget cannot be deleted
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id         path string true "Budget ID"
// @Param       categoryId path string true "Category ID"
// @Success     204 "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Last category"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/categories/{categoryId} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
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
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(userID, budgetID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CATEGORY", "category", categoryID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetCategoryExpenseCount handles counting a category's expenses.
// @Summary     Count a category's expenses
// @Description Get the number of expenses with at least one split in the category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id         path string true "Budget ID"
// @Param       categoryId path string true "Category ID"
// @Success     200 {object} map[string]int64
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/categories/{categoryId}/expenses/count [get]
func (h *CategoryHandler) GetCategoryExpenseCount(c *gin.Context) {
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
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	count, err := h.categoryService.CategoryExpenseCount(userID, budgetID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
