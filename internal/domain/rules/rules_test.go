package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleSuperadmin.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleInspector))
	assert.True(t, RoleInspector.AtLeast(RoleUser))
	assert.False(t, RoleUser.AtLeast(RoleInspector))
	assert.False(t, Role("guest").AtLeast(RoleUser))

	r, ok := ParseRole(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)
}

func TestPermissionTable(t *testing.T) {
	assert.True(t, HasPermission(RoleSuperadmin, PermAuditRead), "wildcard covers everything")
	assert.True(t, HasPermission(RoleSuperadmin, Permission("anything:at_all")))
	assert.True(t, HasPermission(RoleAdmin, PermAssessmentVerify))
	assert.False(t, HasPermission(RoleAdmin, PermInspectorManage))
	assert.True(t, HasPermission(RoleInspector, PermLocationUpdate))
	assert.False(t, HasPermission(RoleUser, PermLocationUpdate))
	assert.True(t, HasPermission(RoleUser, PermAssessmentCreate))
	assert.False(t, HasPermission(Role("guest"), PermLocationRead))

	err := RequirePermission(RoleUser, PermStatisticsRead)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := map[string]bool{
		"short1A":       false,
		"alllowercase1": false,
		"ALLUPPER123":   false,
		"NoDigitsHere":  false,
		"Valid123":      true,
	}
	for pw, ok := range cases {
		err := ValidatePasswordStrength(pw)
		if ok {
			assert.NoError(t, err, pw)
		} else {
			assert.Error(t, err, pw)
		}
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("Secret123", hash))
	assert.False(t, CheckPasswordHash("secret123", hash))
}

func TestTransitions(t *testing.T) {
	allowed := [][2]AssessmentStatus{
		{StatusDraft, StatusPending},
		{StatusPending, StatusInProgress},
		{StatusInProgress, StatusSubmitted},
		{StatusSubmitted, StatusVerified},
		{StatusSubmitted, StatusRejected},
	}
	for _, p := range allowed {
		assert.NoError(t, Transition(p[0], p[1]), "%s -> %s", p[0], p[1])
	}

	denied := [][2]AssessmentStatus{
		{StatusDraft, StatusVerified},
		{StatusDraft, StatusRejected},
		{StatusDraft, StatusSubmitted},
		{StatusPending, StatusSubmitted},
		{StatusVerified, StatusRejected},
		{StatusRejected, StatusDraft},
		{StatusVerified, StatusDraft},
	}
	for _, p := range denied {
		err := Transition(p[0], p[1])
		require.Error(t, err, "%s -> %s", p[0], p[1])
		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, code.ErrInvalidTransition, e.Code)
	}
}

func TestVerifiedAndRejectedOnlyFromSubmitted(t *testing.T) {
	all := []AssessmentStatus{StatusDraft, StatusPending, StatusInProgress, StatusSubmitted, StatusVerified, StatusRejected}
	for _, from := range all {
		for _, to := range []AssessmentStatus{StatusVerified, StatusRejected} {
			assert.Equal(t, from == StatusSubmitted, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.True(t, StatusVerified.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.Empty(t, NextStatuses(StatusVerified))
	assert.False(t, StatusSubmitted.IsEditable())
	assert.True(t, StatusInProgress.IsEditable())
}

func TestComputeScoreWorkedExample(t *testing.T) {
	criteria := []WeightedCriterion{
		{CriterionID: 1, Weight: 5, MaxRating: 5},
		{CriterionID: 2, Weight: 3, MaxRating: 5},
	}
	s := ComputeScore(criteria, map[uint]int{1: 4, 2: 2})

	assert.Equal(t, 40.0, s.Max)
	assert.Equal(t, 26.0, s.Total)
	assert.Equal(t, 65.0, s.Percentage)
	assert.Equal(t, 2, s.Answered)
}

func TestComputeScoreBounds(t *testing.T) {
	criteria := []WeightedCriterion{
		{CriterionID: 1, Weight: 2, MaxRating: 3},
		{CriterionID: 2, Weight: 7, MaxRating: 10},
		{CriterionID: 3, Weight: 1, MaxRating: 1},
	}
	ratingSets := []map[uint]int{
		{},
		{1: 3},
		{1: 3, 2: 10, 3: 1},
		{1: 99, 2: -4, 99: 5},
		{2: 6},
	}
	for _, ratings := range ratingSets {
		s := ComputeScore(criteria, ratings)
		assert.GreaterOrEqual(t, s.Total, 0.0)
		assert.LessOrEqual(t, s.Total, s.Max)
		assert.InDelta(t, s.Total/s.Max*100, s.Percentage, 1e-9)
	}
}

func TestComputeScoreEmptySet(t *testing.T) {
	s := ComputeScore(nil, map[uint]int{1: 3})
	assert.Equal(t, 0.0, s.Max)
	assert.Equal(t, 0.0, s.Total)
	assert.Equal(t, 0.0, s.Percentage)
}

func TestValidateRating(t *testing.T) {
	assert.NoError(t, ValidateRating(0, 5))
	assert.NoError(t, ValidateRating(5, 5))
	assert.Error(t, ValidateRating(6, 5))
	assert.Error(t, ValidateRating(-1, 5))
}

func TestValidateInspectorAssignment(t *testing.T) {
	super := Actor{ID: 1, Role: RoleSuperadmin}
	admin := Subject{ID: 2, Role: RoleAdmin}

	assert.NoError(t, ValidateInspectorAssignment(super, admin))

	err := ValidateInspectorAssignment(Actor{ID: 3, Role: RoleAdmin}, admin)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err), "caller not superadmin")

	err = ValidateInspectorAssignment(super, Subject{ID: 4, Role: RoleUser})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "target not admin")

	err = ValidateInspectorAssignment(super, Subject{ID: 5, Role: RoleInspector})
	assert.Error(t, err, "inspector role is not admin")

	err = ValidateInspectorAssignment(super, Subject{ID: 1, Role: RoleSuperadmin})
	assert.Error(t, err, "self assignment")

	err = ValidateInspectorAssignment(Actor{ID: 2, Role: RoleAdmin}, admin)
	assert.Error(t, err, "admin assigning themself")
}

func TestValidateRoleChange(t *testing.T) {
	super := Actor{ID: 1, Role: RoleSuperadmin}
	admin := Actor{ID: 2, Role: RoleAdmin}

	assert.NoError(t, ValidateRoleChange(super, Subject{ID: 3, Role: RoleUser}, RoleAdmin))
	assert.NoError(t, ValidateRoleChange(admin, Subject{ID: 3, Role: RoleUser}, RoleInspector))
	assert.Error(t, ValidateRoleChange(admin, Subject{ID: 3, Role: RoleUser}, RoleSuperadmin))
	assert.Error(t, ValidateRoleChange(super, Subject{ID: 9, Role: RoleSuperadmin}, RoleUser))
	assert.Error(t, ValidateRoleChange(admin, Subject{ID: 2, Role: RoleAdmin}, RoleUser))
	assert.Error(t, ValidateRoleChange(Actor{ID: 4, Role: RoleUser}, Subject{ID: 3, Role: RoleUser}, RoleInspector))
	assert.Error(t, ValidateRoleChange(super, Subject{ID: 3, Role: RoleUser}, Role("owner")))
}

func TestValidateBan(t *testing.T) {
	super := Actor{ID: 1, Role: RoleSuperadmin}
	admin := Actor{ID: 2, Role: RoleAdmin}

	assert.NoError(t, ValidateBan(admin, Subject{ID: 3, Role: RoleUser}))
	assert.NoError(t, ValidateBan(super, Subject{ID: 2, Role: RoleAdmin}))
	assert.Error(t, ValidateBan(admin, Subject{ID: 5, Role: RoleAdmin}))
	assert.Error(t, ValidateBan(admin, Subject{ID: 1, Role: RoleSuperadmin}))
	assert.Error(t, ValidateBan(admin, Subject{ID: 2, Role: RoleAdmin}))
}

func TestCanModifyOwned(t *testing.T) {
	assert.True(t, CanModifyOwned(Actor{ID: 7, Role: RoleUser}, 7))
	assert.False(t, CanModifyOwned(Actor{ID: 8, Role: RoleUser}, 7))
	assert.True(t, CanModifyOwned(Actor{ID: 8, Role: RoleInspector}, 7))
}
