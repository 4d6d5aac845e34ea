package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"kakebo/internal/uuid"
)

// SnapshotSchemaVersion is the version written into new snapshots. Older
// rows without a version field decode with version 0 and are still readable.
const SnapshotSchemaVersion = 1

// SnapshotCategory is a value-copy of a category's display fields taken at
// snapshot time. It does not reference a live Category row, so later
// mutation or deletion of the category cannot alter a closed cycle.
type SnapshotCategory struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Icon             string           `json:"icon,omitempty"`
	Color            string           `json:"color,omitempty"`
	AllocationMethod AllocationMethod `json:"allocation_method"`
	AllocationValue  int64            `json:"allocation_value"`
	SortOrder        int              `json:"sort_order"`
}

// Snapshot is the immutable summary of a completed cycle, stored as a jsonb
// column on BudgetCycle. Once written, TotalSpent and CategoryTotals are
// never recomputed from live expense data; only Categories may gain
// appended entries.
type Snapshot struct {
	SchemaVersion  int                `json:"schema_version"`
	BudgetTotal    int64              `json:"budget_total"`
	Currency       string             `json:"currency"`
	Locale         string             `json:"locale"`
	Categories     []SnapshotCategory `json:"categories"`
	TotalSpent     int64              `json:"total_spent"`
	CategoryTotals map[string]int64   `json:"category_totals"`
}

// Value implements driver.Valuer, serializing the snapshot to JSON.
func (s Snapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner, deserializing the snapshot from JSON.
func (s *Snapshot) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported snapshot column type %T", value)
	}
}

// BudgetCycle represents one bounded recurring period of a budget.
// StartDate and EndDate are UTC day-precision instants, inclusive on both
// ends. Cycles are created lazily, never deleted, and at most one exists
// per (budget_id, start_date) pair, enforced by the composite unique index.
type BudgetCycle struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetID  string         `gorm:"type:uuid;not null;uniqueIndex:idx_budget_cycles_budget_start" json:"budget_id"`
	StartDate time.Time      `gorm:"not null;uniqueIndex:idx_budget_cycles_budget_start" json:"start_date"`
	EndDate   time.Time      `gorm:"not null" json:"end_date"`
	Snapshot  *Snapshot      `gorm:"type:jsonb" json:"snapshot,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (c *BudgetCycle) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New()
	}
	return nil
}

// HasSnapshot reports whether the cycle has been closed with a snapshot.
func (c *BudgetCycle) HasSnapshot() bool {
	return c.Snapshot != nil
}
