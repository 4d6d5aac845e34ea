package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"kakebo/internal/allocation"
	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
	"kakebo/internal/pagination"
)

type expenseService struct {
	db            *gorm.DB
	budgetService BudgetServicer
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, budgetService BudgetServicer) ExpenseServicer {
	return &expenseService{db: db, budgetService: budgetService}
}

// CreateExpense records an expense with its category splits. A payee may be
// referenced by id or by name; names are matched case-insensitively against
// the budget's existing payees and created on first use. The expense, its
// splits, and any new payee are written in one transaction.
func (s *expenseService) CreateExpense(userID, budgetID string, payeeID *string, payeeName string,
	amount int64, date time.Time, description string, splits []SplitInput) (*models.Expense, error) {
	if _, err := s.budgetService.AuthorizeEditor(budgetID, userID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if len(splits) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one split is required")
	}
	if err := s.validateSplits(budgetID, splits); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		BudgetID:    budgetID,
		Amount:      amount,
		Date:        date,
		Description: description,
		CreatedByID: userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		resolvedPayeeID, err := s.resolvePayee(tx, userID, budgetID, payeeID, payeeName)
		if err != nil {
			return err
		}
		expense.PayeeID = resolvedPayeeID

		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range splits {
			split := models.ExpenseSplit{
				ExpenseID:        expense.ID,
				CategoryID:       splits[i].CategoryID,
				AllocationMethod: splits[i].AllocationMethod,
				AllocationValue:  splits[i].AllocationValue,
				CalculatedAmount: calculatedAmount(amount, splits[i]),
				CreatedByID:      userID,
			}
			if err := tx.Create(&split).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			expense.Splits = append(expense.Splits, split)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// calculatedAmount resolves a split's currency amount. PERCENTAGE splits
// are evaluated against the expense amount here, never trusted from the
// client; other methods keep whatever the caller resolved.
func calculatedAmount(expenseAmount int64, in SplitInput) *int64 {
	if in.AllocationMethod == models.AllocationPercentage {
		calc := allocation.FromBasisPoints(in.AllocationValue, expenseAmount)
		return &calc
	}
	return in.CalculatedAmount
}

// GetBudgetExpenses returns a budget's expenses, newest first, optionally
// filtered by category or date range.
func (s *expenseService) GetBudgetExpenses(userID, budgetID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	if _, err := s.budgetService.AuthorizeMember(budgetID, userID); err != nil {
		return nil, err
	}

	page.Defaults()

	query := s.db.Model(&models.Expense{}).Where("expenses.budget_id = ?", budgetID)
	if filter.CategoryID != nil {
		query = query.Joins("JOIN expense_splits ON expense_splits.expense_id = expenses.id").
			Where("expense_splits.category_id = ?", *filter.CategoryID).
			Distinct("expenses.*")
	}
	if filter.FromDate != nil {
		query = query.Where("expenses.date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("expenses.date <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	err := query.Scopes(pagination.Paginate(page)).
		Preload("Splits").Preload("Payee").
		Order("expenses.date desc, expenses.created_at desc").
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	response := pagination.NewPageResponse(expenses, page.Page, page.PageSize, total)
	return &response, nil
}

// GetExpenseByID returns a single expense with splits and payee loaded.
func (s *expenseService) GetExpenseByID(userID, budgetID, expenseID string) (*models.Expense, error) {
	if _, err := s.budgetService.AuthorizeMember(budgetID, userID); err != nil {
		return nil, err
	}
	return s.findExpense(s.db, budgetID, expenseID)
}

// UpdateExpense modifies an expense. When splits are provided they replace
// the existing splits wholesale; partial split edits are not supported.
func (s *expenseService) UpdateExpense(userID, budgetID, expenseID string, amount *int64, date *time.Time,
	description *string, splits []SplitInput) (*models.Expense, error) {
	if _, err := s.budgetService.AuthorizeEditor(budgetID, userID); err != nil {
		return nil, err
	}
	if amount != nil && *amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if splits != nil {
		if len(splits) == 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one split is required")
		}
		if err := s.validateSplits(budgetID, splits); err != nil {
			return nil, err
		}
	}

	expense, err := s.findExpense(s.db, budgetID, expenseID)
	if err != nil {
		return nil, err
	}

	effectiveAmount := expense.Amount
	if amount != nil {
		effectiveAmount = *amount
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if amount != nil {
			updates["amount"] = *amount
		}
		if date != nil {
			updates["date"] = *date
		}
		if description != nil {
			updates["description"] = *description
		}
		if len(updates) > 0 {
			if err := tx.Model(expense).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if splits != nil {
			if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.ExpenseSplit{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			expense.Splits = nil
			for i := range splits {
				split := models.ExpenseSplit{
					ExpenseID:        expense.ID,
					CategoryID:       splits[i].CategoryID,
					AllocationMethod: splits[i].AllocationMethod,
					AllocationValue:  splits[i].AllocationValue,
					CalculatedAmount: calculatedAmount(effectiveAmount, splits[i]),
					CreatedByID:      userID,
				}
				if err := tx.Create(&split).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				expense.Splits = append(expense.Splits, split)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense soft deletes an expense and its splits.
func (s *expenseService) DeleteExpense(userID, budgetID, expenseID string) error {
	if _, err := s.budgetService.AuthorizeEditor(budgetID, userID); err != nil {
		return err
	}

	expense, err := s.findExpense(s.db, budgetID, expenseID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.ExpenseSplit{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// validateSplits checks that every split references a live category of the
// same budget and that category ids are not repeated.
func (s *expenseService) validateSplits(budgetID string, splits []SplitInput) error {
	seen := make(map[string]bool, len(splits))
	for _, split := range splits {
		if split.CategoryID == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "split category id is required")
		}
		if seen[split.CategoryID] {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "duplicate category in splits")
		}
		seen[split.CategoryID] = true

		var count int64
		err := s.db.Model(&models.Category{}).
			Where("id = ? AND budget_id = ?", split.CategoryID, budgetID).
			Count(&count).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return apperrors.ErrCategoryNotFound
		}
	}
	return nil
}

// resolvePayee returns the payee id for an expense: the given id (verified
// to belong to the budget), an existing payee matched by name, or a newly
// created one.
func (s *expenseService) resolvePayee(tx *gorm.DB, userID, budgetID string, payeeID *string, payeeName string) (*string, error) {
	if payeeID != nil {
		var payee models.Payee
		err := tx.Where("id = ? AND budget_id = ?", *payeeID, budgetID).First(&payee).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrPayeeNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &payee.ID, nil
	}

	name := strings.TrimSpace(payeeName)
	if name == "" {
		return nil, nil
	}

	var payee models.Payee
	err := tx.Where("budget_id = ? AND LOWER(name) = LOWER(?)", budgetID, name).First(&payee).Error
	if err == nil {
		return &payee.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	payee = models.Payee{BudgetID: budgetID, Name: name, CreatedByID: userID}
	if err := tx.Create(&payee).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &payee.ID, nil
}

func (s *expenseService) findExpense(tx *gorm.DB, budgetID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	err := tx.Preload("Splits").Preload("Payee").
		Where("id = ? AND budget_id = ?", expenseID, budgetID).
		First(&expense).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}
