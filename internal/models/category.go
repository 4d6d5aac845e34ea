package models

// AllocationMethod represents how a category's share of the budget is determined
type AllocationMethod string

const (
	AllocationFixed      AllocationMethod = "FIXED"
	AllocationPercentage AllocationMethod = "PERCENTAGE"
	AllocationRemaining  AllocationMethod = "REMAINING"
)

// Category represents a spending category within a budget.
// AllocationValue is in minor currency units for FIXED, basis points
// (0-10000) for PERCENTAGE, and ignored for REMAINING. At most one
// non-deleted category per budget may use REMAINING; the category
// service enforces this at creation time.
type Category struct {
	Base
	BudgetID         string           `gorm:"type:uuid;not null;index" json:"budget_id"`
	Name             string           `gorm:"not null" json:"name"`
	Description      string           `json:"description"`
	Icon             string           `json:"icon"`
	Color            string           `json:"color"`
	AllocationMethod AllocationMethod `gorm:"not null;default:FIXED" json:"allocation_method"`
	AllocationValue  int64            `gorm:"type:bigint;not null;default:0" json:"allocation_value"`
	SortOrder        int              `gorm:"not null;default:0" json:"sort_order"`
	CreatedByID      string           `gorm:"type:uuid" json:"created_by_id"`

	// Relationships
	Splits []ExpenseSplit `gorm:"foreignKey:CategoryID" json:"splits,omitempty"`
}
