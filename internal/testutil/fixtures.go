package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"kakebo/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     fmt.Sprintf("Test User %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates a monthly budget owned by the given user, with
// the owner membership row. The anchor date defaults to the first of the
// current month.
func CreateTestBudget(t *testing.T, db *gorm.DB, ownerID string) *models.Budget {
	t.Helper()

	now := time.Now().UTC()
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return CreateTestBudgetWithCycle(t, db, ownerID, models.CycleTypeMonthly, &anchor)
}

// CreateTestBudgetWithCycle creates a budget with the given cycle
// configuration, plus the owner membership row.
func CreateTestBudgetWithCycle(t *testing.T, db *gorm.DB, ownerID string, cycleType models.CycleType, anchorDate *time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		Name:        fmt.Sprintf("Test Budget %d", nextID()),
		OwnerID:     ownerID,
		TotalAmount: 100000, // $1000.00
		Currency:    "USD",
		Locale:      "en-US",
		CycleType:   cycleType,
		AnchorDate:  anchorDate,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}

	member := &models.BudgetMember{
		BudgetID: budget.ID,
		UserID:   ownerID,
		Role:     models.MemberRoleOwner,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create owner membership: %v", err)
	}
	return budget
}

// CreateTestMember adds a user to a budget with the given role.
func CreateTestMember(t *testing.T, db *gorm.DB, budgetID, userID string, role models.MemberRole) *models.BudgetMember {
	t.Helper()

	member := &models.BudgetMember{
		BudgetID: budgetID,
		UserID:   userID,
		Role:     role,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create test member: %v", err)
	}
	return member
}

// CreateTestCategory creates a fixed-allocation category.
func CreateTestCategory(t *testing.T, db *gorm.DB, budgetID, createdByID string, value int64) *models.Category {
	t.Helper()
	return CreateTestCategoryWithMethod(t, db, budgetID, createdByID, models.AllocationFixed, value)
}

// CreateTestCategoryWithMethod creates a category with the given allocation method.
func CreateTestCategoryWithMethod(t *testing.T, db *gorm.DB, budgetID, createdByID string, method models.AllocationMethod, value int64) *models.Category {
	t.Helper()

	category := &models.Category{
		BudgetID:         budgetID,
		Name:             fmt.Sprintf("Test Category %d", nextID()),
		AllocationMethod: method,
		AllocationValue:  value,
		SortOrder:        int(nextID()),
		CreatedByID:      createdByID,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates an expense with a single fixed split covering
// the full amount in the given category.
func CreateTestExpense(t *testing.T, db *gorm.DB, budgetID, categoryID, createdByID string, amount int64, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		BudgetID:    budgetID,
		Amount:      amount,
		Date:        date,
		Description: fmt.Sprintf("Test Expense %d", nextID()),
		CreatedByID: createdByID,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}

	split := &models.ExpenseSplit{
		ExpenseID:        expense.ID,
		CategoryID:       categoryID,
		AllocationMethod: models.AllocationFixed,
		AllocationValue:  amount,
		CreatedByID:      createdByID,
	}
	if err := db.Create(split).Error; err != nil {
		t.Fatalf("failed to create test expense split: %v", err)
	}
	expense.Splits = []models.ExpenseSplit{*split}
	return expense
}

// CreateTestCycle creates a cycle record for the given window, without a snapshot.
func CreateTestCycle(t *testing.T, db *gorm.DB, budgetID string, start, end time.Time) *models.BudgetCycle {
	t.Helper()

	cycle := &models.BudgetCycle{
		BudgetID:  budgetID,
		StartDate: start,
		EndDate:   end,
	}
	if err := db.Create(cycle).Error; err != nil {
		t.Fatalf("failed to create test cycle: %v", err)
	}
	return cycle
}
