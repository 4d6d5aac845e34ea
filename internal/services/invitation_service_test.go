package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"kakebo/internal/models"
	"kakebo/internal/testutil"
)

func newTestInvitationService(db *gorm.DB, now time.Time) *invitationService {
	return &invitationService{
		db:            db,
		budgetService: NewBudgetService(db),
		ttl:           7 * 24 * time.Hour,
		now:           func() time.Time { return now },
	}
}

func TestCreateInvitation(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		owner := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID)
		svc := newTestInvitationService(db, now)

		invitation, err := svc.CreateInvitation(owner.ID, budget.ID, "Friend@Example.com", models.MemberRoleMember)
		testutil.AssertNoError(t, err)

		if invitation.Email != "friend@example.com" {
			t.Errorf("expected lowercased email, got %s", invitation.Email)
		}
		if invitation.Token == "" {
			t.Error("expected token to be set")
		}
		if !invitation.ExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
			t.Errorf("unexpected expiry %s", invitation.ExpiresAt)
		}
	})

	t.Run("owner_role_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		owner := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID)
		svc := newTestInvitationService(db, now)

		_, err := svc.CreateInvitation(owner.ID, budget.ID, "friend@example.com", models.MemberRoleOwner)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("non_owner_forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		owner := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID)
		testutil.CreateTestMember(t, db, budget.ID, member.ID, models.MemberRoleMember)
		svc := newTestInvitationService(db, now)

		_, err := svc.CreateInvitation(member.ID, budget.ID, "friend@example.com", models.MemberRoleMember)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}

func TestAcceptInvitation(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates_membership", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		owner := testutil.CreateTestUser(t, db)
		invitee := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID)
		svc := newTestInvitationService(db, now)

		invitation, err := svc.CreateInvitation(owner.ID, budget.ID, invitee.Email, models.MemberRoleViewer)
		testutil.AssertNoError(t, err)

		member, err := svc.AcceptInvitation(invitee.ID, invitation.Token)
		testutil.AssertNoError(t, err)

		if member.Role != models.MemberRoleViewer {
			t.Errorf("expected viewer role, got %s", member.Role)
		}
		if member.BudgetID != budget.ID {
			t.Errorf("expected budget %s, got %s", budget.ID, member.BudgetID)
		}
	})

	t.Run("token_single_use", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		owner := testutil.CreateTestUser(t, db)
		invitee := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID)
		svc := newTestInvitationService(db, now)

		invitation, err := svc.CreateInvitation(owner.ID, budget.ID, invitee.Email, models.MemberRoleMember)
		testutil.AssertNoError(t, err)

		_, err = svc.AcceptInvitation(invitee.ID, invitation.Token)
		testutil.AssertNoError(t, err)

		_, err = svc.AcceptInvitation(invitee.ID, invitation.Token)
		testutil.AssertAppError(t, err, "INVITATION_NOT_FOUND")
	})

	t.Run("expired", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		owner := testutil.CreateTestUser(t, db)
		invitee := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID)
		svc := newTestInvitationService(db, now)

		invitation, err := svc.CreateInvitation(owner.ID, budget.ID, invitee.Email, models.MemberRoleMember)
		testutil.AssertNoError(t, err)

		svc.now = func() time.Time { return now.Add(8 * 24 * time.Hour) }
		_, err = svc.AcceptInvitation(invitee.ID, invitation.Token)
		testutil.AssertAppError(t, err, "INVITATION_EXPIRED")
	})

	t.Run("existing_member_noop", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		owner := testutil.CreateTestUser(t, db)
		invitee := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID)
		existing := testutil.CreateTestMember(t, db, budget.ID, invitee.ID, models.MemberRoleMember)
		svc := newTestInvitationService(db, now)

		invitation, err := svc.CreateInvitation(owner.ID, budget.ID, invitee.Email, models.MemberRoleViewer)
		testutil.AssertNoError(t, err)

		member, err := svc.AcceptInvitation(invitee.ID, invitation.Token)
		testutil.AssertNoError(t, err)

		// The existing membership and role win; the invitation is consumed.
		if member.ID != existing.ID {
			t.Errorf("expected existing membership, got %s", member.ID)
		}
		if member.Role != models.MemberRoleMember {
			t.Errorf("expected member role preserved, got %s", member.Role)
		}

		var reloaded models.Invitation
		testutil.AssertNoError(t, db.First(&reloaded, "id = ?", invitation.ID).Error)
		if reloaded.AcceptedAt == nil {
			t.Error("expected invitation to be consumed")
		}
	})
}
