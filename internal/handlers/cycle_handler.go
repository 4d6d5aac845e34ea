package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
	"kakebo/internal/services"
)

// CycleHandler handles budget cycle requests.
type CycleHandler struct {
	cycleService services.CycleServicer
	auditService services.AuditServicer
}

// NewCycleHandler creates a new CycleHandler.
func NewCycleHandler(cycleService services.CycleServicer, auditService services.AuditServicer) *CycleHandler {
	return &CycleHandler{cycleService: cycleService, auditService: auditService}
}

// AppendSnapshotCategoryRequest represents the request payload for appending
// a category to a closed cycle's snapshot.
type AppendSnapshotCategoryRequest struct {
	Name             string                  `json:"name" binding:"required,min=1,max=100"`
	Icon             string                  `json:"icon" binding:"max=50"`
	Color            string                  `json:"color" binding:"omitempty,hex_color"`
	AllocationMethod models.AllocationMethod `json:"allocation_method" binding:"required,allocation_method"`
	AllocationValue  int64                   `json:"allocation_value" binding:"min=0"`
}

// GetCycle resolves a budget cycle.
// @Summary     Resolve a cycle
// @Description Resolve the current cycle, a cycle by ID, or the cycle containing a date. Resolving the current cycle creates it if missing and freezes the previous cycle.
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Param       id      path  string true  "Budget ID"
// @Param       cycleId query string false "Cycle ID (mutually exclusive with date)"
// @Param       date    query string false "Date within the cycle, YYYY-MM-DD (mutually exclusive with cycleId)"
// @Success     200 {object} services.CycleView "Resolved cycle"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget or cycle not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/cycles [get]
func (h *CycleHandler) GetCycle(c *gin.Context) {
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

	var opts services.ResolveOptions
	if v := c.Query("cycleId"); v != "" {
		opts.CycleID = &v
	}
	date, err := parseDateQuery(c, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	opts.Date = date

	if opts.CycleID != nil && opts.Date != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "cycleId and date are mutually exclusive"))
		return
	}

	view, err := h.cycleService.ResolveCycle(userID, budgetID, opts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListCycles lists a budget's cycles.
// @Summary     List cycles
// @Description List all cycles of a budget, newest first
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {array} services.CycleSummary "Cycles"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/cycles/list [get]
func (h *CycleHandler) ListCycles(c *gin.Context) {
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

	cycles, err := h.cycleService.ListCycles(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycles": cycles})
}

// AppendSnapshotCategory appends a category to a closed cycle's snapshot.
// @Summary     Append a snapshot category
// @Description Append a category to a frozen cycle's snapshot. Committed totals are not recomputed.
// @Tags        cycles
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                        true "Budget ID"
// @Param       cycleId path string                        true "Cycle ID"
// @Param       request body AppendSnapshotCategoryRequest true "Category details"
// @Success     201 {object} models.SnapshotCategory "Category appended"
// @Failure     400 {object} ErrorResponse "Invalid input or cycle not snapshotted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget or cycle not found"
// @Failure     409 {object} ErrorResponse "Duplicate category name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/cycles/{cycleId}/categories [post]
func (h *CycleHandler) AppendSnapshotCategory(c *gin.Context) {
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
	cycleID, err := parsePathID(c, "cycleId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AppendSnapshotCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.cycleService.AppendSnapshotCategory(userID, budgetID, cycleID, services.SnapshotCategoryInput{
		Name:             req.Name,
		Icon:             req.Icon,
		Color:            req.Color,
		AllocationMethod: req.AllocationMethod,
		AllocationValue:  req.AllocationValue,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "APPEND_SNAPSHOT_CATEGORY", "cycle", cycleID, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}
