package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
	"kakebo/internal/pagination"
)

// budgetService handles budget-related business logic, including the
// membership and role checks the rest of the API delegates to.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new budget and its owner membership in one
// transaction.
func (s *budgetService) CreateBudget(
	userID, name, description string,
	totalAmount int64,
	currency, locale string,
	cycleType models.CycleType,
	cycleStartDay, customCycleDays *int,
	anchorDate *time.Time,
) (*models.Budget, error) {
	if totalAmount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total amount must not be negative")
	}

	budget := &models.Budget{
		Name:            name,
		Description:     description,
		OwnerID:         userID,
		TotalAmount:     totalAmount,
		Currency:        currency,
		Locale:          locale,
		CycleType:       cycleType,
		CycleStartDay:   cycleStartDay,
		CustomCycleDays: customCycleDays,
		AnchorDate:      anchorDate,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		member := &models.BudgetMember{
			BudgetID: budget.ID,
			UserID:   userID,
			Role:     models.MemberRoleOwner,
		}
		if err := tx.Create(member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets the user is a member of.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).
		Joins("JOIN budget_members ON budget_members.budget_id = budgets.id").
		Where("budget_members.user_id = ? AND budget_members.deleted_at IS NULL", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget if the user is a member.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	if _, err := s.AuthorizeMember(budgetID, userID); err != nil {
		return nil, err
	}

	var budget models.Budget
	if err := s.db.First(&budget, "id = ?", budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates a budget's mutable fields. Owner only. The
// recurrence configuration is deliberately immutable: changing it would
// invalidate every existing cycle record.
func (s *budgetService) UpdateBudget(userID, budgetID, name, description string, totalAmount *int64) (*models.Budget, error) {
	if _, err := s.AuthorizeOwner(budgetID, userID); err != nil {
		return nil, err
	}

	var budget models.Budget
	if err := s.db.First(&budget, "id = ?", budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if totalAmount != nil {
		if *totalAmount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total amount must not be negative")
		}
		updates["total_amount"] = *totalAmount
	}

	if len(updates) > 0 {
		if err := s.db.Model(&budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return &budget, nil
}

// DeleteBudget soft-deletes a budget. Owner only.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	if _, err := s.AuthorizeOwner(budgetID, userID); err != nil {
		return err
	}

	if err := s.db.Delete(&models.Budget{}, "id = ?", budgetID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetMembers lists the members of a budget the user belongs to.
func (s *budgetService) GetBudgetMembers(userID, budgetID string) ([]models.BudgetMember, error) {
	if _, err := s.AuthorizeMember(budgetID, userID); err != nil {
		return nil, err
	}

	var members []models.BudgetMember
	if err := s.db.Preload("User").Where("budget_id = ?", budgetID).Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return members, nil
}

// AuthorizeMember returns the user's membership in the budget, or
// BUDGET_NOT_FOUND when the user is not a member. Existence of budgets the
// caller does not belong to is never revealed.
func (s *budgetService) AuthorizeMember(budgetID, userID string) (*models.BudgetMember, error) {
	var member models.BudgetMember
	err := s.db.Where("budget_id = ? AND user_id = ?", budgetID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &member, nil
}

// AuthorizeEditor requires a role that may mutate budget data (owner or
// member, not viewer).
func (s *budgetService) AuthorizeEditor(budgetID, userID string) (*models.BudgetMember, error) {
	member, err := s.AuthorizeMember(budgetID, userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanEdit() {
		return nil, apperrors.ErrForbidden
	}
	return member, nil
}

// AuthorizeOwner requires the owner role.
func (s *budgetService) AuthorizeOwner(budgetID, userID string) (*models.BudgetMember, error) {
	member, err := s.AuthorizeMember(budgetID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != models.MemberRoleOwner {
		return nil, apperrors.ErrForbidden
	}
	return member, nil
}
