package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
)

type payeeService struct {
	db            *gorm.DB
	budgetService BudgetServicer
}

// NewPayeeService creates a new PayeeServicer.
func NewPayeeService(db *gorm.DB, budgetService BudgetServicer) PayeeServicer {
	return &payeeService{db: db, budgetService: budgetService}
}

// CreatePayee adds a payee to a budget. Names are unique per budget,
// compared case-insensitively; creating an existing name returns the
// existing payee.
func (s *payeeService) CreatePayee(userID, budgetID, name string) (*models.Payee, error) {
	if _, err := s.budgetService.AuthorizeEditor(budgetID, userID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payee name is required")
	}

	var existing models.Payee
	err := s.db.Where("budget_id = ? AND LOWER(name) = LOWER(?)", budgetID, name).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	payee := &models.Payee{BudgetID: budgetID, Name: name, CreatedByID: userID}
	if err := s.db.Create(payee).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payee, nil
}

// GetBudgetPayees returns a budget's payees sorted by name.
func (s *payeeService) GetBudgetPayees(userID, budgetID string) ([]models.Payee, error) {
	if _, err := s.budgetService.AuthorizeMember(budgetID, userID); err != nil {
		return nil, err
	}

	var payees []models.Payee
	if err := s.db.Where("budget_id = ?", budgetID).Order("name asc").Find(&payees).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payees, nil
}

// UpdatePayee renames a payee.
func (s *payeeService) UpdatePayee(userID, budgetID, payeeID, name string) (*models.Payee, error) {
	if _, err := s.budgetService.AuthorizeEditor(budgetID, userID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payee name is required")
	}

	payee, err := s.findPayee(budgetID, payeeID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(payee).Update("name", name).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payee, nil
}

// DeletePayee soft deletes a payee. Expenses keep their payee reference;
// the payee simply stops appearing in listings.
func (s *payeeService) DeletePayee(userID, budgetID, payeeID string) error {
	if _, err := s.budgetService.AuthorizeEditor(budgetID, userID); err != nil {
		return err
	}

	payee, err := s.findPayee(budgetID, payeeID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(payee).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *payeeService) findPayee(budgetID, payeeID string) (*models.Payee, error) {
	var payee models.Payee
	err := s.db.Where("id = ? AND budget_id = ?", payeeID, budgetID).First(&payee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPayeeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &payee, nil
}
