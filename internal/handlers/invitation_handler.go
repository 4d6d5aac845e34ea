package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
	"kakebo/internal/services"
)

// InvitationHandler handles budget invitation requests.
type InvitationHandler struct {
	invitationService services.InvitationServicer
	auditService      services.AuditServicer
}

// NewInvitationHandler creates a new InvitationHandler.
func NewInvitationHandler(invitationService services.InvitationServicer, auditService services.AuditServicer) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService, auditService: auditService}
}

// CreateInvitationRequest represents the request payload for inviting a member.
type CreateInvitationRequest struct {
	Email string            `json:"email" binding:"required,email,max=255"`
	Role  models.MemberRole `json:"role" binding:"required,member_role"`
}

// AcceptInvitationRequest represents the request payload for accepting an invitation.
type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

// CreateInvitation handles inviting a member to a budget.
// @Summary     Invite a member
// @Description Invite an email address to join a budget (owner only)
// @Tags        invitations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Budget ID"
// @Param       request body CreateInvitationRequest true "Invitation details"
// @Success     201 {object} models.Invitation "Invitation created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/invitations [post]
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
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

	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	invitation, err := h.invitationService.CreateInvitation(userID, budgetID, req.Email, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_INVITATION", "invitation", invitation.ID, c.ClientIP(),
		map[string]interface{}{"email": req.Email, "role": req.Role})

	c.JSON(http.StatusCreated, gin.H{"invitation": invitation, "token": invitation.Token})
}

// GetInvitations handles listing a budget's pending invitations.
// @Summary     Get invitations
// @Description List a budget's pending invitations (owner only)
// @Tags        invitations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {array} models.Invitation "Invitations"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/invitations [get]
func (h *InvitationHandler) GetInvitations(c *gin.Context) {
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

	invitations, err := h.invitationService.GetBudgetInvitations(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

// AcceptInvitation handles accepting an invitation token.
// @Summary     Accept an invitation
// @Description Redeem an invitation token and join the budget
// @Tags        invitations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AcceptInvitationRequest true "Invitation token"
// @Success     200 {object} models.BudgetMember "Membership"
// @Failure     400 {object} ErrorResponse "Invalid input or expired invitation"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Invitation not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invitations/accept [post]
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.invitationService.AcceptInvitation(userID, req.Token)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ACCEPT_INVITATION", "budget_member", member.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"member": member})
}
