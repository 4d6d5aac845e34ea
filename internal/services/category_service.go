package services

import (
	"errors"
	"sort"

	"gorm.io/gorm"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db            *gorm.DB
	budgetService BudgetServicer
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, budgetService BudgetServicer) CategoryServicer {
	return &categoryService{db: db, budgetService: budgetService}
}

// CreateCategory creates a new category within a budget. At most one
// non-deleted category per budget may use the REMAINING allocation method;
// the rule is enforced here, at creation time, not in the evaluator.
func (s *categoryService) CreateCategory(
	userID, budgetID, name, description, icon, color string,
	method models.AllocationMethod,
	value int64,
) (*models.Category, error) {
	member, err := s.budgetService.AuthorizeEditor(budgetID, userID)
	if err != nil {
		return nil, err
	}

	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if method == "" {
		method = models.AllocationFixed
	}

	if method == models.AllocationRemaining {
		var count int64
		err := s.db.Model(&models.Category{}).
			Where("budget_id = ? AND allocation_method = ?", budgetID, models.AllocationRemaining).
			Count(&count).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrRemainingAllocationExists
		}
	}

	var maxSortOrder int64
	err = s.db.Model(&models.Category{}).Unscoped().
		Where("budget_id = ?", budgetID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&maxSortOrder).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	category := &models.Category{
		BudgetID:         budgetID,
		Name:             name,
		Description:      description,
		Icon:             icon,
		Color:            color,
		AllocationMethod: method,
		AllocationValue:  value,
		SortOrder:        int(maxSortOrder) + 1,
		CreatedByID:      member.UserID,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetBudgetCategories lists a budget's categories sorted for display:
// REMAINING last regardless of sort order, everything else by sort order.
func (s *categoryService) GetBudgetCategories(userID, budgetID string) ([]models.Category, error) {
	if _, err := s.budgetService.AuthorizeMember(budgetID, userID); err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Where("budget_id = ?", budgetID).Order("sort_order asc").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	SortRemainingLast(categories)
	return categories, nil
}

// GetCategoryByID returns a category if it belongs to the budget and the
// user is a member.
func (s *categoryService) GetCategoryByID(userID, budgetID, categoryID string) (*models.Category, error) {
	if _, err := s.budgetService.AuthorizeMember(budgetID, userID); err != nil {
		return nil, err
	}

	var category models.Category
	err := s.db.Where("id = ? AND budget_id = ?", categoryID, budgetID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates a category's fields. Switching the allocation
// method to REMAINING re-runs the single-REMAINING check.
func (s *categoryService) UpdateCategory(
	userID, budgetID, categoryID, name, description, icon, color string,
	method *models.AllocationMethod,
	value *int64,
) (*models.Category, error) {
	if _, err := s.budgetService.AuthorizeEditor(budgetID, userID); err != nil {
		return nil, err
	}

	category, err := s.GetCategoryByID(userID, budgetID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}
	if method != nil {
		if *method == models.AllocationRemaining && category.AllocationMethod != models.AllocationRemaining {
			var count int64
			err := s.db.Model(&models.Category{}).
				Where("budget_id = ? AND allocation_method = ? AND id <> ?", budgetID, models.AllocationRemaining, categoryID).
				Count(&count).Error
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				return nil, apperrors.ErrRemainingAllocationExists
			}
		}
		updates["allocation_method"] = *method
	}
	if value != nil {
		updates["allocation_value"] = *value
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory soft-deletes a category. The last non-deleted category of
// a budget cannot be removed.
func (s *categoryService) DeleteCategory(userID, budgetID, categoryID string) error {
	if _, err := s.budgetService.AuthorizeEditor(budgetID, userID); err != nil {
		return err
	}

	category, err := s.GetCategoryByID(userID, budgetID, categoryID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Category{}).Where("budget_id = ?", budgetID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count <= 1 {
		return apperrors.ErrLastCategory
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CategoryExpenseCount returns the number of non-deleted expenses with at
// least one split in the category.
func (s *categoryService) CategoryExpenseCount(userID, budgetID, categoryID string) (int64, error) {
	if _, err := s.GetCategoryByID(userID, budgetID, categoryID); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.Model(&models.Expense{}).
		Joins("JOIN expense_splits ON expense_splits.expense_id = expenses.id").
		Where("expenses.budget_id = ? AND expense_splits.category_id = ? AND expense_splits.deleted_at IS NULL", budgetID, categoryID).
		Distinct("expenses.id").
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// SortRemainingLast orders categories for display: REMAINING categories
// sort after everything else, remaining order is by SortOrder ascending.
func SortRemainingLast(categories []models.Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		a, b := categories[i], categories[j]
		if a.AllocationMethod == models.AllocationRemaining && b.AllocationMethod != models.AllocationRemaining {
			return false
		}
		if a.AllocationMethod != models.AllocationRemaining && b.AllocationMethod == models.AllocationRemaining {
			return true
		}
		return a.SortOrder < b.SortOrder
	})
}
