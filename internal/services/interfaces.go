package services

import (
	"time"

	"kakebo/internal/models"
	"kakebo/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// BudgetServicer defines the contract for budget-related business logic.
// Authorize* methods implement the membership/role checks every
// budget-scoped operation runs before touching data: a non-member sees
// BUDGET_NOT_FOUND (existence is hidden), an insufficient role FORBIDDEN.
type BudgetServicer interface {
	CreateBudget(userID, name, description string, totalAmount int64, currency, locale string,
		cycleType models.CycleType, cycleStartDay, customCycleDays *int, anchorDate *time.Time) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID, name, description string, totalAmount *int64) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetMembers(userID, budgetID string) ([]models.BudgetMember, error)
	AuthorizeMember(budgetID, userID string) (*models.BudgetMember, error)
	AuthorizeEditor(budgetID, userID string) (*models.BudgetMember, error)
	AuthorizeOwner(budgetID, userID string) (*models.BudgetMember, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, budgetID, name, description, icon, color string,
		method models.AllocationMethod, value int64) (*models.Category, error)
	GetBudgetCategories(userID, budgetID string) ([]models.Category, error)
	GetCategoryByID(userID, budgetID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, budgetID, categoryID, name, description, icon, color string,
		method *models.AllocationMethod, value *int64) (*models.Category, error)
	DeleteCategory(userID, budgetID, categoryID string) error
	CategoryExpenseCount(userID, budgetID, categoryID string) (int64, error)
}

// SplitInput describes one category split of an expense being created or
// updated. CalculatedAmount carries the resolved currency amount for
// non-FIXED splits.
type SplitInput struct {
	CategoryID       string
	AllocationMethod models.AllocationMethod
	AllocationValue  int64
	CalculatedAmount *int64
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	CategoryID *string
	FromDate   *time.Time
	ToDate     *time.Time
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(userID, budgetID string, payeeID *string, payeeName string,
		amount int64, date time.Time, description string, splits []SplitInput) (*models.Expense, error)
	GetBudgetExpenses(userID, budgetID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, budgetID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, budgetID, expenseID string, amount *int64, date *time.Time,
		description *string, splits []SplitInput) (*models.Expense, error)
	DeleteExpense(userID, budgetID, expenseID string) error
}

// PayeeServicer defines the contract for payee-related business logic.
type PayeeServicer interface {
	CreatePayee(userID, budgetID, name string) (*models.Payee, error)
	GetBudgetPayees(userID, budgetID string) ([]models.Payee, error)
	UpdatePayee(userID, budgetID, payeeID, name string) (*models.Payee, error)
	DeletePayee(userID, budgetID, payeeID string) error
}

// InvitationServicer defines the contract for invitation-related business logic.
type InvitationServicer interface {
	CreateInvitation(userID, budgetID, email string, role models.MemberRole) (*models.Invitation, error)
	GetBudgetInvitations(userID, budgetID string) ([]models.Invitation, error)
	AcceptInvitation(userID, token string) (*models.BudgetMember, error)
}

// ResolveOptions selects which cycle to resolve. CycleID and Date are
// mutually exclusive; with neither set the current cycle is resolved
// (and created if missing).
type ResolveOptions struct {
	CycleID *string
	Date    *time.Time
}

// CycleView is the resolved result of a cycle query: either a live view
// (totals computed from expense data) or a snapshot view (totals read from
// the frozen snapshot). Both variants share the totals shape.
// AllocatedAmounts is the evaluated allocation per category: against the
// live budget total for live views, against the frozen budget total and
// category set for snapshot views.
type CycleView struct {
	Cycle            *models.BudgetCycle `json:"cycle"`
	CategoryTotals   map[string]int64    `json:"category_totals"`
	AllocatedAmounts map[string]int64    `json:"allocated_amounts"`
	TotalSpent       int64               `json:"total_spent"`
	IsCurrentCycle   bool                `json:"is_current_cycle"`
	Snapshot         *models.Snapshot    `json:"snapshot,omitempty"`
}

// CycleSummary is a listing entry for a budget's cycles.
type CycleSummary struct {
	ID          string    `json:"id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	HasSnapshot bool      `json:"has_snapshot"`
	CreatedAt   time.Time `json:"created_at"`
}

// SnapshotCategoryInput describes a category being appended to a closed
// cycle's snapshot.
type SnapshotCategoryInput struct {
	Name             string
	Icon             string
	Color            string
	AllocationMethod models.AllocationMethod
	AllocationValue  int64
}

// CycleServicer defines the contract for the budget cycle engine.
type CycleServicer interface {
	ResolveCycle(userID, budgetID string, opts ResolveOptions) (*CycleView, error)
	ListCycles(userID, budgetID string) ([]CycleSummary, error)
	AppendSnapshotCategory(userID, budgetID, cycleID string, input SnapshotCategoryInput) (*models.SnapshotCategory, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
