package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/messaging"
	"accessible-env-backend/internal/test/testutil"
)

type workflow struct {
	*env
	super    *models.User
	admin    *models.User
	assessor *models.User
	location *models.Location
	set      *models.AssessmentSet
	criteria []*models.Criterion
}

func newWorkflow(t *testing.T, weights ...int) *workflow {
	e := newEnv(t)
	w := &workflow{
		env:      e,
		super:    testutil.CreateUser(t, e.db, rules.RoleSuperadmin),
		admin:    testutil.CreateUser(t, e.db, rules.RoleAdmin),
		assessor: testutil.CreateUser(t, e.db, rules.RoleUser),
	}
	w.location = testutil.CreateLocation(t, e.db, testutil.CreateGeo(t, e.db), w.assessor)
	w.set, w.criteria = testutil.CreateSet(t, e.db, weights...)
	return w
}

// submitted creates an assessment, rates it and brings it to submitted
func (w *workflow) submitted(t *testing.T, ratings ...int) *models.Assessment {
	t.Helper()
	actor := w.assessor.Actor()
	a, err := w.assessments.Create(w.ctx, actor, w.location.ID, w.set.ID, "")
	require.NoError(t, err)
	for i, r := range ratings {
		_, err = w.assessments.UpsertDetail(w.ctx, actor, a.ID, services.DetailInput{CriterionID: w.criteria[i].ID, Rating: r})
		require.NoError(t, err)
	}
	_, err = w.assessments.Schedule(w.ctx, actor, a.ID)
	require.NoError(t, err)
	_, err = w.assessments.Start(w.ctx, actor, a.ID)
	require.NoError(t, err)
	a, err = w.assessments.Submit(w.ctx, actor, a.ID)
	require.NoError(t, err)
	return a
}

func TestAssessmentWorkedExample(t *testing.T) {
	w := newWorkflow(t, 5, 3)
	actor := w.assessor.Actor()

	a, err := w.assessments.Create(w.ctx, actor, w.location.ID, w.set.ID, "entrance and lift")
	require.NoError(t, err)
	assert.Equal(t, rules.StatusDraft, a.Status)
	assert.Equal(t, 40.0, a.MaxPossibleScore)
	assert.Equal(t, 0.0, a.TotalScore)

	_, err = w.assessments.UpsertDetail(w.ctx, actor, a.ID, services.DetailInput{CriterionID: w.criteria[0].ID, Rating: 4, Condition: "good"})
	require.NoError(t, err)
	a, err = w.assessments.UpsertDetail(w.ctx, actor, a.ID, services.DetailInput{CriterionID: w.criteria[1].ID, Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, 26.0, a.TotalScore)
	assert.Equal(t, 40.0, a.MaxPossibleScore)
	assert.Equal(t, 65.0, a.PercentageScore)
	assert.Len(t, a.Details, 2)

	// re-rating replaces the detail instead of adding one
	a, err = w.assessments.UpsertDetail(w.ctx, actor, a.ID, services.DetailInput{CriterionID: w.criteria[1].ID, Rating: 2, Comment: "narrow door"})
	require.NoError(t, err)
	assert.Len(t, a.Details, 2)

	_, err = w.assessments.Schedule(w.ctx, actor, a.ID)
	require.NoError(t, err)
	_, err = w.assessments.Start(w.ctx, actor, a.ID)
	require.NoError(t, err)
	a, err = w.assessments.Submit(w.ctx, actor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.StatusSubmitted, a.Status)
	require.NotNil(t, a.SubmittedAt)

	a, err = w.assessments.Verify(w.ctx, w.super.Actor(), a.ID, "looks right")
	require.NoError(t, err)
	assert.Equal(t, rules.StatusVerified, a.Status)
	require.NotNil(t, a.VerifierID)
	assert.Equal(t, w.super.ID, *a.VerifierID)
	assert.Equal(t, 65.0, a.PercentageScore)

	loc, err := repositories.NewLocationRepository(w.db).Get(w.ctx, w.location.ID)
	require.NoError(t, err)
	require.NotNil(t, loc.Stats)
	assert.Equal(t, 65.0, loc.Stats.AccessibilityScore)
	assert.Equal(t, 1, loc.Stats.AssessmentCount)

	var stored []models.Notification
	require.NoError(t, w.db.Where("user_id = ?", w.assessor.ID).Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationAssessmentVerified, stored[0].Type)
	assert.Equal(t, 1, w.pusher.Count(w.assessor.ID))

	assert.Eventually(t, func() bool {
		types := w.publisher.Types()
		return contains(types, messaging.EventAssessmentSubmitted) && contains(types, messaging.EventAssessmentVerified)
	}, time.Second, 10*time.Millisecond)
}

func TestAssessmentTransitionsCannotSkip(t *testing.T) {
	w := newWorkflow(t, 1)
	actor := w.assessor.Actor()

	a, err := w.assessments.Create(w.ctx, actor, w.location.ID, w.set.ID, "")
	require.NoError(t, err)
	_, err = w.assessments.UpsertDetail(w.ctx, actor, a.ID, services.DetailInput{CriterionID: w.criteria[0].ID, Rating: 3})
	require.NoError(t, err)

	_, err = w.assessments.Submit(w.ctx, actor, a.ID)
	requireCode(t, err, apperr.KindConflict, code.ErrInvalidTransition)
	_, err = w.assessments.Start(w.ctx, actor, a.ID)
	requireCode(t, err, apperr.KindConflict, code.ErrInvalidTransition)
	_, err = w.assessments.Verify(w.ctx, w.super.Actor(), a.ID, "")
	requireCode(t, err, apperr.KindConflict, code.ErrInvalidTransition)

	_, err = w.assessments.Schedule(w.ctx, actor, a.ID)
	require.NoError(t, err)
	_, err = w.assessments.Schedule(w.ctx, actor, a.ID)
	requireCode(t, err, apperr.KindConflict, code.ErrInvalidTransition)

	got, err := w.assessments.Get(w.ctx, actor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.StatusPending, got.Status)
}

func TestOnlyAssessorDrivesWorkflow(t *testing.T) {
	w := newWorkflow(t, 1)
	a, err := w.assessments.Create(w.ctx, w.assessor.Actor(), w.location.ID, w.set.ID, "")
	require.NoError(t, err)

	other := testutil.CreateUser(t, w.db, rules.RoleUser)
	_, err = w.assessments.Schedule(w.ctx, other.Actor(), a.ID)
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)
	_, err = w.assessments.UpsertDetail(w.ctx, other.Actor(), a.ID, services.DetailInput{CriterionID: w.criteria[0].ID, Rating: 1})
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)
}

func TestSubmitRequiresARating(t *testing.T) {
	w := newWorkflow(t, 2, 2)
	actor := w.assessor.Actor()
	a, err := w.assessments.Create(w.ctx, actor, w.location.ID, w.set.ID, "")
	require.NoError(t, err)
	_, err = w.assessments.Schedule(w.ctx, actor, a.ID)
	require.NoError(t, err)
	_, err = w.assessments.Start(w.ctx, actor, a.ID)
	require.NoError(t, err)

	_, err = w.assessments.Submit(w.ctx, actor, a.ID)
	requireCode(t, err, apperr.KindValidation, code.ErrValidation)

	got, err := w.assessments.Get(w.ctx, actor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.StatusInProgress, got.Status, "failed submit keeps the status")
}

func TestUpsertDetailValidation(t *testing.T) {
	w := newWorkflow(t, 2)
	actor := w.assessor.Actor()
	a, err := w.assessments.Create(w.ctx, actor, w.location.ID, w.set.ID, "")
	require.NoError(t, err)

	_, err = w.assessments.UpsertDetail(w.ctx, actor, a.ID, services.DetailInput{CriterionID: w.criteria[0].ID, Rating: 6})
	requireCode(t, err, apperr.KindValidation, code.ErrInvalidRating)

	_, foreign := testutil.CreateSet(t, w.db, 1)
	_, err = w.assessments.UpsertDetail(w.ctx, actor, a.ID, services.DetailInput{CriterionID: foreign[0].ID, Rating: 1})
	requireCode(t, err, apperr.KindValidation, code.ErrCriterionNotInSet)

	a = w.submitted(t, 3)
	_, err = w.assessments.UpsertDetail(w.ctx, actor, a.ID, services.DetailInput{CriterionID: w.criteria[0].ID, Rating: 1})
	requireCode(t, err, apperr.KindConflict, code.ErrAssessmentLocked)
}

func TestCreateRejectsArchivedLocationAndInactiveSet(t *testing.T) {
	w := newWorkflow(t, 1)
	actor := w.assessor.Actor()

	require.NoError(t, w.db.Model(w.set).Update("is_active", false).Error)
	_, err := w.assessments.Create(w.ctx, actor, w.location.ID, w.set.ID, "")
	requireCode(t, err, apperr.KindValidation, code.ErrValidation)

	require.NoError(t, w.db.Model(w.set).Update("is_active", true).Error)
	require.NoError(t, w.db.Model(w.location).Update("status", models.LocationArchived).Error)
	_, err = w.assessments.Create(w.ctx, actor, w.location.ID, w.set.ID, "")
	requireCode(t, err, apperr.KindConflict, code.ErrLocationArchived)
}

func TestVerifyAuthorization(t *testing.T) {
	w := newWorkflow(t, 1)
	a := w.submitted(t, 4)

	_, err := w.assessments.Verify(w.ctx, w.admin.Actor(), a.ID, "")
	requireCode(t, err, apperr.KindForbidden, code.ErrInspectorNotAssigned)

	inspector := testutil.CreateUser(t, w.db, rules.RoleInspector)
	_, err = w.assessments.Verify(w.ctx, inspector.Actor(), a.ID, "")
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)

	_, err = w.assessments.Verify(w.ctx, w.assessor.Actor(), a.ID, "")
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)

	testutil.AssignInspector(t, w.db, w.location, w.admin, w.super)
	a, err = w.assessments.Verify(w.ctx, w.admin.Actor(), a.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, rules.StatusVerified, a.Status)

	_, err = w.assessments.Verify(w.ctx, w.admin.Actor(), a.ID, "")
	requireCode(t, err, apperr.KindConflict, code.ErrInvalidTransition)
	_, err = w.assessments.Reject(w.ctx, w.super.Actor(), a.ID, "late")
	requireCode(t, err, apperr.KindConflict, code.ErrInvalidTransition)
}

func TestSubmitNotifiesInspectors(t *testing.T) {
	w := newWorkflow(t, 1)
	testutil.AssignInspector(t, w.db, w.location, w.admin, w.super)

	a := w.submitted(t, 2)

	var stored []models.Notification
	require.NoError(t, w.db.Where("user_id = ?", w.admin.ID).Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationAssessmentSubmitted, stored[0].Type)

	pending, total, err := w.assessments.ListPendingVerification(w.ctx, w.admin.Actor(), &models.PaginationQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)

	outsider := testutil.CreateUser(t, w.db, rules.RoleAdmin)
	pending, total, err = w.assessments.ListPendingVerification(w.ctx, outsider.Actor(), &models.PaginationQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, pending)

	_, _, err = w.assessments.ListPendingVerification(w.ctx, w.assessor.Actor(), &models.PaginationQuery{})
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)
}

func TestRejectAndReassess(t *testing.T) {
	w := newWorkflow(t, 5, 3)
	a := w.submitted(t, 4, 2)

	_, err := w.assessments.Reject(w.ctx, w.super.Actor(), a.ID, "   ")
	requireCode(t, err, apperr.KindValidation, code.ErrValidation)

	a, err = w.assessments.Reject(w.ctx, w.super.Actor(), a.ID, "photos missing")
	require.NoError(t, err)
	assert.Equal(t, rules.StatusRejected, a.Status)
	assert.Equal(t, "photos missing", a.RejectionReason)

	loc, err := repositories.NewLocationRepository(w.db).Get(w.ctx, w.location.ID)
	require.NoError(t, err)
	if loc.Stats != nil {
		assert.Equal(t, 0, loc.Stats.AssessmentCount, "rejected assessments do not count")
	}

	other := testutil.CreateUser(t, w.db, rules.RoleUser)
	_, err = w.assessments.Reassess(w.ctx, other.Actor(), a.ID)
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)

	next, err := w.assessments.Reassess(w.ctx, w.assessor.Actor(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.StatusDraft, next.Status)
	require.NotNil(t, next.ReassessedFromID)
	assert.Equal(t, a.ID, *next.ReassessedFromID)
	assert.Len(t, next.Details, 2)
	assert.Equal(t, 26.0, next.TotalScore)

	_, err = w.assessments.Reassess(w.ctx, w.assessor.Actor(), next.ID)
	requireCode(t, err, apperr.KindConflict, code.ErrInvalidTransition)
}

func TestUnverifiedAssessmentsAreHidden(t *testing.T) {
	w := newWorkflow(t, 1)
	a := w.submitted(t, 1)

	stranger := testutil.CreateUser(t, w.db, rules.RoleUser)
	_, err := w.assessments.Get(w.ctx, stranger.Actor(), a.ID)
	requireCode(t, err, apperr.KindNotFound, code.ErrAssessmentNotFound)

	list, _, err := w.assessments.ListByLocation(w.ctx, stranger.Actor(), w.location.ID, &models.PaginationQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, _, err = w.assessments.ListByLocation(w.ctx, w.super.Actor(), w.location.ID, &models.PaginationQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = w.assessments.Verify(w.ctx, w.super.Actor(), a.ID, "")
	require.NoError(t, err)
	got, err := w.assessments.Get(w.ctx, stranger.Actor(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestReviewDetail(t *testing.T) {
	w := newWorkflow(t, 1)
	a := w.submitted(t, 2)
	full, err := w.assessments.Get(w.ctx, w.assessor.Actor(), a.ID)
	require.NoError(t, err)
	require.Len(t, full.Details, 1)

	_, err = w.assessments.ReviewDetail(w.ctx, w.admin.Actor(), a.ID, full.Details[0].ID, "checked")
	requireCode(t, err, apperr.KindForbidden, code.ErrInspectorNotAssigned)

	d, err := w.assessments.ReviewDetail(w.ctx, w.super.Actor(), a.ID, full.Details[0].ID, " checked ")
	require.NoError(t, err)
	assert.True(t, d.IsReviewed)
	assert.Equal(t, "checked", d.AdminComment)
}

func TestDeleteAssessment(t *testing.T) {
	w := newWorkflow(t, 1)
	actor := w.assessor.Actor()

	draft, err := w.assessments.Create(w.ctx, actor, w.location.ID, w.set.ID, "")
	require.NoError(t, err)
	other := testutil.CreateUser(t, w.db, rules.RoleUser)
	requireCode(t, w.assessments.Delete(w.ctx, other.Actor(), draft.ID), apperr.KindForbidden, code.ErrForbidden)
	require.NoError(t, w.assessments.Delete(w.ctx, actor, draft.ID))

	a := w.submitted(t, 5)
	requireCode(t, w.assessments.Delete(w.ctx, actor, a.ID), apperr.KindConflict, code.ErrAssessmentLocked)

	_, err = w.assessments.Verify(w.ctx, w.super.Actor(), a.ID, "")
	require.NoError(t, err)
	require.NoError(t, w.assessments.Delete(w.ctx, w.super.Actor(), a.ID))

	_, err = w.assessments.Get(w.ctx, w.super.Actor(), a.ID)
	requireCode(t, err, apperr.KindNotFound, code.ErrAssessmentNotFound)

	loc, err := repositories.NewLocationRepository(w.db).Get(w.ctx, w.location.ID)
	require.NoError(t, err)
	require.NotNil(t, loc.Stats)
	assert.Equal(t, 0, loc.Stats.AssessmentCount)
	assert.Equal(t, 0.0, loc.Stats.AccessibilityScore)
}

func TestCommentsNotifyAssessor(t *testing.T) {
	w := newWorkflow(t, 1)
	a := w.submitted(t, 1)

	_, err := w.assessments.AddComment(w.ctx, w.super.Actor(), a.ID, "  ")
	requireCode(t, err, apperr.KindValidation, code.ErrValidation)

	c, err := w.assessments.AddComment(w.ctx, w.super.Actor(), a.ID, "please add a photo of the ramp")
	require.NoError(t, err)
	_, err = w.assessments.AddComment(w.ctx, w.assessor.Actor(), a.ID, "done")
	require.NoError(t, err)

	comments, err := w.assessments.ListComments(w.ctx, w.assessor.Actor(), a.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	var n models.Notification
	require.NoError(t, w.db.Where("user_id = ? AND type = ?", w.assessor.ID, models.NotificationCommentAdded).Take(&n).Error)
	assert.Contains(t, n.Payload, "comment_id")
	assert.Equal(t, c.Body, n.Message)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
