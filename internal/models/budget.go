package models

import "time"

// CycleType represents the recurrence rule of a budget's cycles
type CycleType string

const (
	CycleTypeWeekly    CycleType = "WEEKLY"
	CycleTypeBiweekly  CycleType = "BIWEEKLY"
	CycleTypeMonthly   CycleType = "MONTHLY"
	CycleTypeQuarterly CycleType = "QUARTERLY"
	CycleTypeYearly    CycleType = "YEARLY"
	CycleTypeCustom    CycleType = "CUSTOM"
)

// Budget represents a shared household budget. TotalAmount is in minor
// currency units (cents). AnchorDate, when set, fixes the phase of the
// recurring cycle; CycleStartDay is a fallback (weekday 0-6 for WEEKLY,
// day of month for MONTHLY) used when no anchor is present.
type Budget struct {
	Base
	Name            string     `gorm:"not null" json:"name"`
	Description     string     `json:"description"`
	OwnerID         string     `gorm:"type:uuid;not null" json:"owner_id"`
	TotalAmount     int64      `gorm:"type:bigint;not null" json:"total_amount"`
	Currency        string     `gorm:"size:3;not null;default:USD" json:"currency"`
	Locale          string     `gorm:"not null;default:en-US" json:"locale"`
	CycleType       CycleType  `gorm:"not null;default:MONTHLY" json:"cycle_type"`
	CycleStartDay   *int       `json:"cycle_start_day,omitempty"`
	CustomCycleDays *int       `json:"custom_cycle_days,omitempty"`
	AnchorDate      *time.Time `json:"anchor_date,omitempty"`

	// Relationships
	Members    []BudgetMember `gorm:"foreignKey:BudgetID" json:"members,omitempty"`
	Categories []Category     `gorm:"foreignKey:BudgetID" json:"categories,omitempty"`
	Cycles     []BudgetCycle  `gorm:"foreignKey:BudgetID" json:"cycles,omitempty"`
	Expenses   []Expense      `gorm:"foreignKey:BudgetID" json:"expenses,omitempty"`
}
