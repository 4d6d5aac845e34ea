package models

// Payee represents a recipient of expenses within a budget.
type Payee struct {
	Base
	BudgetID    string `gorm:"type:uuid;not null;index" json:"budget_id"`
	Name        string `gorm:"not null" json:"name"`
	CreatedByID string `gorm:"type:uuid" json:"created_by_id"`
}
