package models

import "time"

// Expense represents a logged expense within a budget. Amount is in minor
// currency units. Every expense is decomposed into one or more splits,
// each assigned to a single category.
type Expense struct {
	Base
	BudgetID    string    `gorm:"type:uuid;not null;index" json:"budget_id"`
	PayeeID     *string   `gorm:"type:uuid" json:"payee_id,omitempty"`
	Amount      int64     `gorm:"type:bigint;not null" json:"amount"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Description string    `json:"description"`
	CreatedByID string    `gorm:"type:uuid" json:"created_by_id"`

	// Relationships
	Payee  *Payee         `gorm:"foreignKey:PayeeID" json:"payee,omitempty"`
	Splits []ExpenseSplit `gorm:"foreignKey:ExpenseID" json:"splits,omitempty"`
}

// ExpenseSplit assigns a portion of an expense to a category.
// CalculatedAmount holds the resolved currency amount for splits whose
// AllocationValue is not itself an amount (PERCENTAGE splits); aggregation
// prefers it over the raw value when present.
type ExpenseSplit struct {
	Base
	ExpenseID        string           `gorm:"type:uuid;not null;index" json:"expense_id"`
	CategoryID       string           `gorm:"type:uuid;not null;index" json:"category_id"`
	AllocationMethod AllocationMethod `gorm:"not null;default:FIXED" json:"allocation_method"`
	AllocationValue  int64            `gorm:"type:bigint;not null" json:"allocation_value"`
	CalculatedAmount *int64           `gorm:"type:bigint" json:"calculated_amount,omitempty"`
	CreatedByID      string           `gorm:"type:uuid" json:"created_by_id"`
}

// SpentAmount returns the currency amount this split contributes to its
// category's total.
func (s *ExpenseSplit) SpentAmount() int64 {
	if s.CalculatedAmount != nil {
		return *s.CalculatedAmount
	}
	return s.AllocationValue
}
