package models

// MemberRole represents a member's permission level within a budget
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
	MemberRoleViewer MemberRole = "viewer"
)

// CanEdit reports whether the role allows mutating budget data.
func (r MemberRole) CanEdit() bool {
	return r == MemberRoleOwner || r == MemberRoleMember
}

// BudgetMember links a user to a budget with a role. A user appears at
// most once per budget, enforced by the composite unique index.
type BudgetMember struct {
	Base
	BudgetID string     `gorm:"type:uuid;not null;uniqueIndex:idx_budget_members_budget_user" json:"budget_id"`
	UserID   string     `gorm:"type:uuid;not null;uniqueIndex:idx_budget_members_budget_user" json:"user_id"`
	Role     MemberRole `gorm:"not null;default:member" json:"role"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
