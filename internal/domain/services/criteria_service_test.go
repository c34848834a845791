package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/test/testutil"
)

func TestCriterionLifecycle(t *testing.T) {
	e := newEnv(t)
	admin := testutil.CreateUser(t, e.db, rules.RoleAdmin).Actor()
	user := testutil.CreateUser(t, e.db, rules.RoleUser).Actor()

	_, err := e.criteria.CreateCriterion(e.ctx, user, services.CriterionInput{Name: ptr("Ramp"), Code: ptr("ramp")})
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)

	_, err = e.criteria.CreateCriterion(e.ctx, admin, services.CriterionInput{Name: ptr("Ramp")})
	requireCode(t, err, apperr.KindValidation, code.ErrValidation)

	c, err := e.criteria.CreateCriterion(e.ctx, admin, services.CriterionInput{Name: ptr("Ramp"), Code: ptr(" ramp ")})
	require.NoError(t, err)
	assert.Equal(t, "RAMP", c.Code)
	assert.Equal(t, 5, c.MaxRating)

	_, err = e.criteria.CreateCriterion(e.ctx, admin, services.CriterionInput{Name: ptr("Ramp 2"), Code: ptr("RAMP")})
	requireCode(t, err, apperr.KindConflict, code.ErrConflict)

	c, err = e.criteria.UpdateCriterion(e.ctx, admin, c.ID, services.CriterionInput{MaxRating: ptr(10), Unit: ptr("cm")})
	require.NoError(t, err)
	assert.Equal(t, 10, c.MaxRating)
	assert.Equal(t, "cm", c.Unit)

	_, err = e.criteria.UpdateCriterion(e.ctx, admin, c.ID, services.CriterionInput{MaxRating: ptr(0)})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, e.criteria.DeleteCriterion(e.ctx, admin, c.ID))
	_, err = e.criteria.GetCriterion(e.ctx, c.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRatedCriterionIsFrozen(t *testing.T) {
	w := newWorkflow(t, 5, 3)
	w.submitted(t, 4, 2)
	admin := w.admin.Actor()
	rated := w.criteria[0]

	_, err := w.env.criteria.UpdateCriterion(w.ctx, admin, rated.ID, services.CriterionInput{MaxRating: ptr(10)})
	requireCode(t, err, apperr.KindConflict, code.ErrCriterionInUse)

	_, err = w.env.criteria.UpdateCriterion(w.ctx, admin, rated.ID, services.CriterionInput{Name: ptr("Renamed")})
	assert.NoError(t, err, "fields other than the max rating stay editable")

	err = w.env.criteria.DeleteCriterion(w.ctx, admin, rated.ID)
	requireCode(t, err, apperr.KindConflict, code.ErrCriterionInUse)

	err = w.env.criteria.DeleteSet(w.ctx, admin, w.set.ID)
	requireCode(t, err, apperr.KindConflict, code.ErrConflict)
}

func TestSetCriteriaAndVersion(t *testing.T) {
	e := newEnv(t)
	admin := testutil.CreateUser(t, e.db, rules.RoleAdmin).Actor()
	user := testutil.CreateUser(t, e.db, rules.RoleUser).Actor()

	set, err := e.criteria.CreateSet(e.ctx, admin, services.SetInput{Name: ptr("Entrances"), IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 1, set.Version)
	assert.False(t, set.IsActive)

	got, err := e.criteria.GetSet(e.ctx, set.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive, "an inactive flag survives the column default")

	c, err := e.criteria.CreateCriterion(e.ctx, admin, services.CriterionInput{Name: ptr("Door width"), Code: ptr("DOOR")})
	require.NoError(t, err)

	_, err = e.criteria.PutCriterion(e.ctx, admin, set.ID, c.ID, 0, 1)
	requireCode(t, err, apperr.KindValidation, code.ErrValidation)

	set, err = e.criteria.PutCriterion(e.ctx, admin, set.ID, c.ID, 4, 1)
	require.NoError(t, err)
	require.Len(t, set.Criteria, 1)
	assert.Equal(t, 4, set.Criteria[0].Weight)
	assert.Equal(t, 2, set.Version)

	set, err = e.criteria.PutCriterion(e.ctx, admin, set.ID, c.ID, 2, 1)
	require.NoError(t, err)
	require.Len(t, set.Criteria, 1)
	assert.Equal(t, 2, set.Criteria[0].Weight, "putting again changes the weight")
	assert.Equal(t, 3, set.Version)

	all, err := e.criteria.ListSets(e.ctx, admin, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	visible, err := e.criteria.ListSets(e.ctx, user, false)
	require.NoError(t, err)
	assert.Empty(t, visible, "plain users only see active sets")

	set, err = e.criteria.RemoveCriterion(e.ctx, admin, set.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, set.Criteria)
	assert.Equal(t, 4, set.Version)

	require.NoError(t, e.criteria.DeleteSet(e.ctx, admin, set.ID))

	active, err := e.criteria.CreateSet(e.ctx, admin, services.SetInput{Name: ptr("Toilets")})
	require.NoError(t, err)
	got, err = e.criteria.GetSet(e.ctx, active.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive, "sets are active unless asked otherwise")
}
