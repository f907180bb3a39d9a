package services

import (
	"context"
	"sync"
	"testing"

	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrant_SingleActiveRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	p, err := h.permissions.Grant(ctx, user, GrantInput{
		ConsultantUserID: coach.UserID,
		Scope:            "read_write",
		Resources:        []string{"user_goals"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PermissionActive, p.Status)

	list, err := h.permissions.ListMine(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.ScopeReadWrite, list[0].Scope)
	assert.Equal(t, models.StringList{"user_goals"}, list[0].Resources)
	assert.Equal(t, models.PermissionActive, list[0].Status)
}

func TestGrant_ConcurrentFirstGrantsLeaveOneRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.permissions.Grant(ctx, user, GrantInput{ConsultantUserID: coach.UserID, Resources: []string{"user_goals"}})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	all, err := fakePerms{h.store}.ListByPair(ctx, user.UserID, coach.UserID, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	// Every grant locks the grantor row, which exists even before the first grant.
	assert.Equal(t, n, h.store.userLocks)

	_, err = h.permissions.Grant(ctx, models.Principal{UserID: 999, UserType: models.UserTypeUser},
		GrantInput{ConsultantUserID: coach.UserID, Resources: []string{"user_goals"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGrant_ReusesFirstRecordAndRevokesDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	// Two active rows can exist after a create race.
	perms := fakePerms{h.store}
	for i := 0; i < 2; i++ {
		require.NoError(t, perms.Create(ctx, &models.Permission{
			UserID: user.UserID, ConsultantUserID: coach.UserID,
			Scope: models.ScopeRead, Resources: models.StringList{"user_data"}, Status: models.PermissionActive,
		}))
	}

	p, err := h.permissions.Grant(ctx, user, GrantInput{ConsultantUserID: coach.UserID, Resources: []string{"nutrition_targets"}})
	require.NoError(t, err)

	all, err := perms.ListByPair(ctx, user.UserID, coach.UserID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, p.ID, all[0].ID)
	assert.Equal(t, models.PermissionActive, all[0].Status)
	assert.Equal(t, models.ScopeRead, all[0].Scope)
	assert.Equal(t, models.PermissionRevoked, all[1].Status)
	assert.NotNil(t, all[1].RevokedAt)
}

func TestGrant_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)
	other := h.user(t, "bob", models.UserTypeUser)

	cases := []struct {
		name string
		in   GrantInput
		kind error
	}{
		{"no resources", GrantInput{ConsultantUserID: coach.UserID}, ErrValidation},
		{"unknown resource", GrantInput{ConsultantUserID: coach.UserID, Resources: []string{"diary"}}, ErrValidation},
		{"bad scope", GrantInput{ConsultantUserID: coach.UserID, Scope: "admin", Resources: []string{"user_goals"}}, ErrValidation},
		{"not a consultant", GrantInput{ConsultantUserID: other.UserID, Resources: []string{"user_goals"}}, ErrValidation},
		{"missing consultant", GrantInput{ConsultantUserID: 777, Resources: []string{"user_goals"}}, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.permissions.Grant(ctx, user, tc.in)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestRevoke_DeniesEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	_, err := h.permissions.Grant(ctx, user, GrantInput{
		ConsultantUserID: coach.UserID,
		Scope:            "read_write",
		Resources:        []string{"user_goals", "nutrition_targets", "user_data"},
	})
	require.NoError(t, err)
	require.NoError(t, h.permissions.Authorize(ctx, coach.UserID, user.UserID, models.ResourceUserGoals, true))

	n, err := h.permissions.Revoke(ctx, user, coach.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, r := range []models.Resource{models.ResourceUserGoals, models.ResourceNutritionTargets, models.ResourceUserData} {
		err := h.permissions.Authorize(ctx, coach.UserID, user.UserID, r, false)
		assert.ErrorIs(t, err, ErrForbidden, string(r))
	}

	n, err = h.permissions.Revoke(ctx, user, coach.UserID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAuthorize_ScopeAndResource(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)

	_, err := h.permissions.Grant(ctx, user, GrantInput{ConsultantUserID: coach.UserID, Resources: []string{"user_goals"}})
	require.NoError(t, err)

	assert.NoError(t, h.permissions.Authorize(ctx, coach.UserID, user.UserID, models.ResourceUserGoals, false))
	assert.ErrorIs(t, h.permissions.Authorize(ctx, coach.UserID, user.UserID, models.ResourceUserGoals, true), ErrForbidden)
	assert.ErrorIs(t, h.permissions.Authorize(ctx, coach.UserID, user.UserID, models.ResourceUserData, false), ErrForbidden)
}

func TestSessionPermissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, "alice", models.UserTypeUser)
	coach := h.user(t, "coach", models.UserTypeConsultant)
	stranger := h.user(t, "eve", models.UserTypeUser)
	appt := h.scheduled(t, user, coach)

	_, err := h.permissions.GrantForSession(ctx, coach, appt.ID, "read", []string{"user_data"})
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := h.permissions.GrantForSession(ctx, user, appt.ID, "read", []string{"user_data"})
	require.NoError(t, err)
	require.NotNil(t, p.GrantedInAppointmentID)
	assert.Equal(t, appt.ID, *p.GrantedInAppointmentID)
	assert.Equal(t, coach.UserID, p.ConsultantUserID)

	list, err := h.permissions.SessionPermissions(ctx, coach, appt.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = h.permissions.SessionPermissions(ctx, stranger, appt.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
