package models

import "time"

// Invitation represents a pending invite to join a budget. The token is
// opaque and single-use; acceptance is transactional with member creation.
type Invitation struct {
	Base
	BudgetID   string     `gorm:"type:uuid;not null;index" json:"budget_id"`
	Email      string     `gorm:"not null" json:"email"`
	Role       MemberRole `gorm:"not null;default:member" json:"role"`
	Token      string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	InvitedBy  string     `gorm:"type:uuid" json:"invited_by"`
}
