package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
	"kakebo/internal/uuid"
)

type invitationService struct {
	db            *gorm.DB
	budgetService BudgetServicer
	ttl           time.Duration
	now           func() time.Time
}

// NewInvitationService creates a new InvitationServicer. ttl is how long
// an invitation stays acceptable.
func NewInvitationService(db *gorm.DB, budgetService BudgetServicer, ttl time.Duration) InvitationServicer {
	return &invitationService{db: db, budgetService: budgetService, ttl: ttl, now: time.Now}
}

// CreateInvitation invites an email address to join a budget with the given
// role. Only the budget owner can invite, and the owner role cannot be
// granted by invitation.
func (s *invitationService) CreateInvitation(userID, budgetID, email string, role models.MemberRole) (*models.Invitation, error) {
	if _, err := s.budgetService.AuthorizeOwner(budgetID, userID); err != nil {
		return nil, err
	}
	if role == models.MemberRoleOwner {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot invite as owner")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required")
	}

	invitation := &models.Invitation{
		BudgetID:  budgetID,
		Email:     email,
		Role:      role,
		Token:     uuid.New(),
		ExpiresAt: s.now().Add(s.ttl),
		InvitedBy: userID,
	}
	if err := s.db.Create(invitation).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return invitation, nil
}

// GetBudgetInvitations returns a budget's pending invitations, newest first.
func (s *invitationService) GetBudgetInvitations(userID, budgetID string) ([]models.Invitation, error) {
	if _, err := s.budgetService.AuthorizeOwner(budgetID, userID); err != nil {
		return nil, err
	}

	var invitations []models.Invitation
	err := s.db.Where("budget_id = ? AND accepted_at IS NULL", budgetID).
		Order("created_at desc").Find(&invitations).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return invitations, nil
}

// AcceptInvitation redeems an invitation token for the accepting user.
// Marking the invitation accepted and creating the membership happen in
// one transaction. Accepting for a budget the user already belongs to is
// a no-op that still consumes the invitation.
func (s *invitationService) AcceptInvitation(userID, token string) (*models.BudgetMember, error) {
	var member *models.BudgetMember

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var invitation models.Invitation
		err := tx.Where("token = ? AND accepted_at IS NULL", token).First(&invitation).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrInvitationNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		now := s.now()
		if now.After(invitation.ExpiresAt) {
			return apperrors.ErrInvitationExpired
		}

		if err := tx.Model(&invitation).Update("accepted_at", now).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var existing models.BudgetMember
		err = tx.Where("budget_id = ? AND user_id = ?", invitation.BudgetID, userID).First(&existing).Error
		if err == nil {
			member = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		created := models.BudgetMember{
			BudgetID: invitation.BudgetID,
			UserID:   userID,
			Role:     invitation.Role,
		}
		if err := tx.Create(&created).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		member = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}
