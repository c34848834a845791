package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/internal/infrastructure/messaging"
	"accessible-env-backend/internal/infrastructure/metrics"
	"accessible-env-backend/internal/infrastructure/storage"
	"accessible-env-backend/pkg/logger"
)

// DetailInput is the rating of one criterion
type DetailInput struct {
	CriterionID uint
	Rating      int
	Condition   string
	Comment     string
}

// InterfaceAssessmentService drives the assessment workflow:
// draft -> pending -> in_progress -> submitted -> verified | rejected
type InterfaceAssessmentService interface {
	Create(ctx context.Context, actor rules.Actor, locationID, setID uint, notes string) (*models.Assessment, error)
	UpsertDetail(ctx context.Context, actor rules.Actor, assessmentID uint, in DetailInput) (*models.Assessment, error)
	Schedule(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error)
	Start(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error)
	Submit(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error)
	Verify(ctx context.Context, actor rules.Actor, id uint, comment string) (*models.Assessment, error)
	Reject(ctx context.Context, actor rules.Actor, id uint, reason string) (*models.Assessment, error)
	Reassess(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error)
	ReviewDetail(ctx context.Context, actor rules.Actor, assessmentID, detailID uint, adminComment string) (*models.AssessmentDetail, error)

	Get(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error)
	ListByLocation(ctx context.Context, actor rules.Actor, locationID uint, page *models.PaginationQuery) ([]models.Assessment, int64, error)
	ListMine(ctx context.Context, actor rules.Actor, status rules.AssessmentStatus, page *models.PaginationQuery) ([]models.Assessment, int64, error)
	ListPendingVerification(ctx context.Context, actor rules.Actor, page *models.PaginationQuery) ([]models.Assessment, int64, error)
	Delete(ctx context.Context, actor rules.Actor, id uint) error

	AddComment(ctx context.Context, actor rules.Actor, id uint, body string) (*models.AssessmentComment, error)
	ListComments(ctx context.Context, actor rules.Actor, id uint) ([]models.AssessmentComment, error)
}

type AssessmentService struct {
	DB        *gorm.DB
	Config    *config.Config
	Cache     InterfaceRedisService
	Audit     InterfaceAuditService
	Notifier  Notifier
	Publisher messaging.Publisher
	Storage   storage.ObjectStorage
}

func NewAssessmentService(db *gorm.DB, cfg *config.Config, cache InterfaceRedisService, audit InterfaceAuditService,
	notifier Notifier, publisher messaging.Publisher, store storage.ObjectStorage) InterfaceAssessmentService {
	return &AssessmentService{
		DB:        db,
		Config:    cfg,
		Cache:     cache,
		Audit:     audit,
		Notifier:  notifier,
		Publisher: publisher,
		Storage:   store,
	}
}

// 1 Create starts a draft for a location against an active set
func (s *AssessmentService) Create(ctx context.Context, actor rules.Actor, locationID, setID uint, notes string) (*models.Assessment, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermAssessmentCreate); err != nil {
		return nil, err
	}
	a := &models.Assessment{
		LocationID: locationID,
		SetID:      setID,
		AssessorID: actor.ID,
		Status:     rules.StatusDraft,
		Notes:      strings.TrimSpace(notes),
	}
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		loc, err := r.Locations.GetByID(ctx, locationID)
		if err != nil {
			return err
		}
		if loc.Status == models.LocationArchived {
			return apperr.Conflict(code.ErrLocationArchived, "")
		}
		set, err := r.Criteria.Sets.GetByID(ctx, setID)
		if err != nil {
			return err
		}
		if !set.IsActive {
			return apperr.Validation(code.ErrValidation, "assessment set is not active")
		}
		criteria, err := r.Criteria.WeightedCriteria(ctx, setID)
		if err != nil {
			return err
		}
		if len(criteria) == 0 {
			return apperr.Validation(code.ErrValidation, "assessment set has no criteria")
		}

		a.ApplyScore(rules.ComputeScore(criteria, nil))
		if err := r.Assessments.Create(ctx, a); err != nil {
			return err
		}
		return s.Audit.Record(ctx, tx, actor, models.AuditAssessmentCreated, "assessment", a.ID,
			map[string]uint{"location_id": locationID, "set_id": setID})
	})
	if err != nil {
		return nil, err
	}
	metrics.AssessmentTransition(string(rules.StatusDraft))
	return a, nil
}

// 2 UpsertDetail rates one criterion and recomputes the scores. Only the
// assessor may rate, and only while the assessment is editable.
func (s *AssessmentService) UpsertDetail(ctx context.Context, actor rules.Actor, assessmentID uint, in DetailInput) (*models.Assessment, error) {
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		a, err := r.Assessments.GetForUpdate(ctx, assessmentID)
		if err != nil {
			return err
		}
		if a.AssessorID != actor.ID {
			return apperr.Forbidden(code.ErrForbidden, "only the assessor can rate criteria")
		}
		if !a.Status.IsEditable() {
			return apperr.Conflict(code.ErrAssessmentLocked, "")
		}

		criteria, err := r.Criteria.WeightedCriteria(ctx, a.SetID)
		if err != nil {
			return err
		}
		c, ok := findCriterion(criteria, in.CriterionID)
		if !ok {
			return apperr.Validation(code.ErrCriterionNotInSet, "")
		}
		if err := rules.ValidateRating(in.Rating, c.MaxRating); err != nil {
			return err
		}

		if err := r.Assessments.UpsertDetail(ctx, &models.AssessmentDetail{
			AssessmentID: a.ID,
			CriterionID:  in.CriterionID,
			Rating:       in.Rating,
			Condition:    strings.TrimSpace(in.Condition),
			Comment:      strings.TrimSpace(in.Comment),
		}); err != nil {
			return err
		}
		_, err = recompute(ctx, r, a, criteria)
		if err != nil {
			return err
		}
		return r.Assessments.Save(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return repositories.NewAssessmentRepository(s.DB).Get(ctx, assessmentID)
}

// 3 Schedule moves a draft to pending
func (s *AssessmentService) Schedule(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error) {
	return s.advance(ctx, actor, id, rules.StatusPending, nil)
}

// 4 Start moves a pending assessment to in_progress
func (s *AssessmentService) Start(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error) {
	return s.advance(ctx, actor, id, rules.StatusInProgress, nil)
}

// 5 Submit hands an in-progress assessment over for verification. At least
// one criterion must be rated.
func (s *AssessmentService) Submit(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error) {
	var inspectors []uint
	a, err := s.advance(ctx, actor, id, rules.StatusSubmitted, func(r *repositories.Repositories, a *models.Assessment) error {
		criteria, err := r.Criteria.WeightedCriteria(ctx, a.SetID)
		if err != nil {
			return err
		}
		score, err := recompute(ctx, r, a, criteria)
		if err != nil {
			return err
		}
		if score.Answered == 0 {
			return apperr.Validation(code.ErrValidation, "rate at least one criterion before submitting")
		}
		now := time.Now()
		a.SubmittedAt = &now
		inspectors, err = r.Locations.InspectorIDs(ctx, a.LocationID)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, uid := range inspectors {
		notify(s.Notifier, NotificationMessage{
			UserID:   uid,
			Type:     models.NotificationAssessmentSubmitted,
			Title:    "Assessment waiting for verification",
			Message:  fmt.Sprintf("Assessment #%d was submitted and needs verification", a.ID),
			Payload:  map[string]interface{}{"assessment_id": a.ID, "location_id": a.LocationID},
			DedupKey: fmt.Sprintf("assessment:%d:submitted:%d:%d", a.ID, uid, a.SubmittedAt.Unix()),
		})
	}
	publishAsync(s.Publisher, messaging.EventAssessmentSubmitted, assessmentEvent(a))
	return a, nil
}

// 6 Verify accepts a submitted assessment and refreshes the location score.
// The caller must be a superadmin or an inspector of the location.
func (s *AssessmentService) Verify(ctx context.Context, actor rules.Actor, id uint, comment string) (*models.Assessment, error) {
	a, err := s.review(ctx, actor, id, rules.StatusVerified, func(r *repositories.Repositories, a *models.Assessment) error {
		now := time.Now()
		a.VerifiedAt = &now
		a.VerifierComment = strings.TrimSpace(comment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.Cache, fmt.Sprintf(keyLocation, a.LocationID), keyStatsOverview)
	notify(s.Notifier, NotificationMessage{
		UserID:   a.AssessorID,
		Type:     models.NotificationAssessmentVerified,
		Title:    "Assessment verified",
		Message:  fmt.Sprintf("Your assessment #%d was verified with a score of %.1f%%", a.ID, a.PercentageScore),
		Payload:  map[string]interface{}{"assessment_id": a.ID, "percentage_score": a.PercentageScore},
		DedupKey: fmt.Sprintf("assessment:%d:verified", a.ID),
	})
	publishAsync(s.Publisher, messaging.EventAssessmentVerified, assessmentEvent(a))
	return a, nil
}

// 7 Reject returns a submitted assessment with a mandatory reason
func (s *AssessmentService) Reject(ctx context.Context, actor rules.Actor, id uint, reason string) (*models.Assessment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation(code.ErrValidation, "a rejection reason is required")
	}
	a, err := s.review(ctx, actor, id, rules.StatusRejected, func(r *repositories.Repositories, a *models.Assessment) error {
		a.RejectionReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify(s.Notifier, NotificationMessage{
		UserID:   a.AssessorID,
		Type:     models.NotificationAssessmentRejected,
		Title:    "Assessment rejected",
		Message:  fmt.Sprintf("Your assessment #%d was rejected: %s", a.ID, reason),
		Payload:  map[string]interface{}{"assessment_id": a.ID, "reason": reason},
		DedupKey: fmt.Sprintf("assessment:%d:rejected", a.ID),
	})
	publishAsync(s.Publisher, messaging.EventAssessmentRejected, assessmentEvent(a))
	return a, nil
}

// 8 Reassess opens a new draft from a finished assessment, copying the
// ratings that are still valid for the set. The original stays terminal.
func (s *AssessmentService) Reassess(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error) {
	var next *models.Assessment
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		src, err := r.Assessments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if src.AssessorID != actor.ID && !actor.IsSuperadmin() {
			return apperr.Forbidden(code.ErrForbidden, "only the assessor can reassess")
		}
		if !src.Status.IsTerminal() {
			return apperr.Conflict(code.ErrInvalidTransition, "only verified or rejected assessments can be reassessed")
		}
		loc, err := r.Locations.GetByID(ctx, src.LocationID)
		if err != nil {
			return err
		}
		if loc.Status == models.LocationArchived {
			return apperr.Conflict(code.ErrLocationArchived, "")
		}
		set, err := r.Criteria.Sets.GetByID(ctx, src.SetID)
		if err != nil {
			return err
		}
		if !set.IsActive {
			return apperr.Validation(code.ErrValidation, "assessment set is not active")
		}
		criteria, err := r.Criteria.WeightedCriteria(ctx, src.SetID)
		if err != nil {
			return err
		}

		srcID := src.ID
		next = &models.Assessment{
			LocationID:       src.LocationID,
			SetID:            src.SetID,
			AssessorID:       src.AssessorID,
			Status:           rules.StatusDraft,
			Notes:            src.Notes,
			ReassessedFromID: &srcID,
		}
		next.ApplyScore(rules.ComputeScore(criteria, nil))
		if err := r.Assessments.Create(ctx, next); err != nil {
			return err
		}

		details, err := r.Assessments.ListDetails(ctx, src.ID)
		if err != nil {
			return err
		}
		for _, d := range details {
			c, ok := findCriterion(criteria, d.CriterionID)
			if !ok || rules.ValidateRating(d.Rating, c.MaxRating) != nil {
				continue
			}
			if err := r.Assessments.UpsertDetail(ctx, &models.AssessmentDetail{
				AssessmentID: next.ID,
				CriterionID:  d.CriterionID,
				Rating:       d.Rating,
				Condition:    d.Condition,
				Comment:      d.Comment,
			}); err != nil {
				return err
			}
		}
		if _, err := recompute(ctx, r, next, criteria); err != nil {
			return err
		}
		if err := r.Assessments.Save(ctx, next); err != nil {
			return err
		}
		return s.Audit.Record(ctx, tx, actor, models.AuditAssessmentReassess, "assessment", next.ID,
			map[string]uint{"reassessed_from_id": src.ID})
	})
	if err != nil {
		return nil, err
	}
	metrics.AssessmentTransition(string(rules.StatusDraft))
	return repositories.NewAssessmentRepository(s.DB).Get(ctx, next.ID)
}

// 9 ReviewDetail lets an inspector annotate a detail of a submitted assessment
func (s *AssessmentService) ReviewDetail(ctx context.Context, actor rules.Actor, assessmentID, detailID uint, adminComment string) (*models.AssessmentDetail, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermAssessmentVerify); err != nil {
		return nil, err
	}
	var detail *models.AssessmentDetail
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		a, err := r.Assessments.GetForUpdate(ctx, assessmentID)
		if err != nil {
			return err
		}
		if err := requireInspector(ctx, r.Locations, actor, a.LocationID); err != nil {
			return err
		}
		if a.Status != rules.StatusSubmitted {
			return apperr.Conflict(code.ErrInvalidTransition, "only submitted assessments can be reviewed")
		}
		if detail, err = r.Assessments.GetDetail(ctx, assessmentID, detailID); err != nil {
			return err
		}
		detail.AdminComment = strings.TrimSpace(adminComment)
		detail.IsReviewed = true
		return tx.WithContext(ctx).Model(detail).
			Select("admin_comment", "is_reviewed").
			Updates(detail).Error
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// 10 Get returns an assessment with its details if the caller may see it
func (s *AssessmentService) Get(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermAssessmentRead); err != nil {
		return nil, err
	}
	a, err := repositories.NewAssessmentRepository(s.DB).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, actor, a); err != nil {
		return nil, err
	}
	return a, nil
}

// 11 ListByLocation lists the assessments of a location. Inspectors of the
// location see every status, everybody else verified ones only.
func (s *AssessmentService) ListByLocation(ctx context.Context, actor rules.Actor, locationID uint, page *models.PaginationQuery) ([]models.Assessment, int64, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermAssessmentRead); err != nil {
		return nil, 0, err
	}
	locations := repositories.NewLocationRepository(s.DB)
	if _, err := locations.GetByID(ctx, locationID); err != nil {
		return nil, 0, err
	}
	filter := repositories.AssessmentFilter{LocationID: locationID}
	ok, err := isInspector(ctx, locations, actor, locationID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		filter.Status = rules.StatusVerified
	}
	return repositories.NewAssessmentRepository(s.DB).List(ctx, filter, page)
}

// 12 ListMine lists the caller's own assessments
func (s *AssessmentService) ListMine(ctx context.Context, actor rules.Actor, status rules.AssessmentStatus, page *models.PaginationQuery) ([]models.Assessment, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Validation(code.ErrValidation, "unknown assessment status")
	}
	return repositories.NewAssessmentRepository(s.DB).List(ctx,
		repositories.AssessmentFilter{AssessorID: actor.ID, Status: status}, page)
}

// 13 ListPendingVerification lists submitted assessments the caller can
// verify: all of them for a superadmin, those at assigned locations for an
// admin
func (s *AssessmentService) ListPendingVerification(ctx context.Context, actor rules.Actor, page *models.PaginationQuery) ([]models.Assessment, int64, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermAssessmentVerify); err != nil {
		return nil, 0, err
	}
	filter := repositories.AssessmentFilter{Status: rules.StatusSubmitted}
	if !actor.IsSuperadmin() {
		filter.InspectorID = actor.ID
	}
	return repositories.NewAssessmentRepository(s.DB).List(ctx, filter, page)
}

// 14 Delete removes an assessment. Assessors may delete their own drafts,
// superadmins anything.
func (s *AssessmentService) Delete(ctx context.Context, actor rules.Actor, id uint) error {
	var (
		keys       []string
		locationID uint
		wasCounted bool
	)
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		a, err := r.Assessments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.IsSuperadmin() {
			if a.AssessorID != actor.ID {
				return apperr.Forbidden(code.ErrForbidden, "you can only delete your own assessments")
			}
			if a.Status != rules.StatusDraft {
				return apperr.Conflict(code.ErrAssessmentLocked, "only drafts can be deleted")
			}
		}
		locationID = a.LocationID
		wasCounted = a.Status == rules.StatusVerified

		if keys, err = r.Assessments.ImageKeys(ctx, id); err != nil {
			return err
		}
		db := tx.WithContext(ctx)
		for _, child := range []interface{}{&models.AssessmentImage{}, &models.AssessmentComment{}, &models.AssessmentDetail{}} {
			if err := db.Where("assessment_id = ?", id).Delete(child).Error; err != nil {
				return apperr.Infrastructure(code.ErrDatabase, err)
			}
		}
		// reassessments keep existing without their origin
		if err := db.Model(&models.Assessment{}).Where("reassessed_from_id = ?", id).
			Update("reassessed_from_id", nil).Error; err != nil {
			return apperr.Infrastructure(code.ErrDatabase, err)
		}
		if err := r.Assessments.Delete(ctx, id); err != nil {
			return err
		}
		if wasCounted {
			if _, err := r.Locations.RefreshStats(ctx, locationID); err != nil {
				return err
			}
		}
		return s.Audit.Record(ctx, tx, actor, models.AuditAssessmentDeleted, "assessment", id,
			map[string]interface{}{"location_id": locationID, "status": a.Status})
	})
	if err != nil {
		return err
	}

	if wasCounted {
		invalidate(ctx, s.Cache, fmt.Sprintf(keyLocation, locationID), keyStatsOverview)
	}
	if s.Storage != nil {
		for _, key := range keys {
			if err := s.Storage.Delete(ctx, key); err != nil {
				logger.Warning("delete object %s failed: %v", key, err)
			}
		}
	}
	return nil
}

// 15 AddComment adds a discussion entry and tells the assessor
func (s *AssessmentService) AddComment(ctx context.Context, actor rules.Actor, id uint, body string) (*models.AssessmentComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation(code.ErrValidation, "comment cannot be empty")
	}
	repo := repositories.NewAssessmentRepository(s.DB)
	a, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, actor, a); err != nil {
		return nil, err
	}
	comment := &models.AssessmentComment{AssessmentID: id, UserID: actor.ID, Body: body}
	if err := repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if a.AssessorID != actor.ID {
		notify(s.Notifier, NotificationMessage{
			UserID:   a.AssessorID,
			Type:     models.NotificationCommentAdded,
			Title:    "New comment on your assessment",
			Message:  body,
			Payload:  map[string]interface{}{"assessment_id": id, "comment_id": comment.ID},
			DedupKey: fmt.Sprintf("comment:%d", comment.ID),
		})
	}
	return comment, nil
}

// 16 ListComments lists the discussion of an assessment
func (s *AssessmentService) ListComments(ctx context.Context, actor rules.Actor, id uint) ([]models.AssessmentComment, error) {
	repo := repositories.NewAssessmentRepository(s.DB)
	a, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, actor, a); err != nil {
		return nil, err
	}
	return repo.ListComments(ctx, id)
}

// advance runs one assessor driven transition in a transaction. before may
// change the locked row before it is saved.
func (s *AssessmentService) advance(ctx context.Context, actor rules.Actor, id uint, to rules.AssessmentStatus,
	before func(r *repositories.Repositories, a *models.Assessment) error) (*models.Assessment, error) {
	var a *models.Assessment
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		var err error
		if a, err = r.Assessments.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if a.AssessorID != actor.ID {
			return apperr.Forbidden(code.ErrForbidden, "only the assessor can change this assessment")
		}
		from := a.Status
		if err := rules.Transition(from, to); err != nil {
			return err
		}
		if before != nil {
			if err := before(r, a); err != nil {
				return err
			}
		}
		a.Status = to
		if err := r.Assessments.Save(ctx, a); err != nil {
			return err
		}
		return s.Audit.Record(ctx, tx, actor, models.AuditAssessmentStatus, "assessment", a.ID,
			map[string]string{"from": string(from), "to": string(to)})
	})
	if err != nil {
		return nil, err
	}
	metrics.AssessmentTransition(string(to))
	return a, nil
}

// review runs verify or reject. Authorization is checked before the state so
// that outsiders learn nothing about the assessment.
func (s *AssessmentService) review(ctx context.Context, actor rules.Actor, id uint, to rules.AssessmentStatus,
	apply func(r *repositories.Repositories, a *models.Assessment) error) (*models.Assessment, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermAssessmentVerify); err != nil {
		return nil, err
	}
	action := models.AuditAssessmentVerified
	if to == rules.StatusRejected {
		action = models.AuditAssessmentRejected
	}

	var a *models.Assessment
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		var err error
		if a, err = r.Assessments.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if err := requireInspector(ctx, r.Locations, actor, a.LocationID); err != nil {
			return err
		}
		if err := rules.Transition(a.Status, to); err != nil {
			return err
		}
		if err := apply(r, a); err != nil {
			return err
		}
		verifier := actor.ID
		a.VerifierID = &verifier
		a.Status = to
		if err := r.Assessments.Save(ctx, a); err != nil {
			return err
		}
		if to == rules.StatusVerified {
			if _, err := r.Locations.RefreshStats(ctx, a.LocationID); err != nil {
				return err
			}
		}
		return s.Audit.Record(ctx, tx, actor, action, "assessment", a.ID,
			map[string]interface{}{"location_id": a.LocationID, "percentage_score": a.PercentageScore})
	})
	if err != nil {
		return nil, err
	}
	metrics.AssessmentTransition(string(to))
	return a, nil
}

// checkVisible hides unverified assessments from everybody but the
// assessor and the location's inspectors
func (s *AssessmentService) checkVisible(ctx context.Context, actor rules.Actor, a *models.Assessment) error {
	return assessmentVisible(ctx, repositories.NewLocationRepository(s.DB), actor, a)
}

func assessmentVisible(ctx context.Context, locations *repositories.LocationRepository, actor rules.Actor, a *models.Assessment) error {
	if a.Status == rules.StatusVerified || a.AssessorID == actor.ID {
		return nil
	}
	ok, err := isInspector(ctx, locations, actor, a.LocationID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(code.ErrAssessmentNotFound, "")
	}
	return nil
}

func requireInspector(ctx context.Context, locations *repositories.LocationRepository, actor rules.Actor, locationID uint) error {
	ok, err := isInspector(ctx, locations, actor, locationID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden(code.ErrInspectorNotAssigned, "")
	}
	return nil
}

// recompute reloads the ratings of a and applies the resulting score to it
func recompute(ctx context.Context, r *repositories.Repositories, a *models.Assessment, criteria []rules.WeightedCriterion) (rules.Score, error) {
	ratings, err := r.Assessments.Ratings(ctx, a.ID)
	if err != nil {
		return rules.Score{}, err
	}
	score := rules.ComputeScore(criteria, ratings)
	a.ApplyScore(score)
	return score, nil
}

func findCriterion(criteria []rules.WeightedCriterion, id uint) (rules.WeightedCriterion, bool) {
	for _, c := range criteria {
		if c.CriterionID == id {
			return c, true
		}
	}
	return rules.WeightedCriterion{}, false
}

func assessmentEvent(a *models.Assessment) map[string]interface{} {
	return map[string]interface{}{
		"assessment_id":    a.ID,
		"location_id":      a.LocationID,
		"set_id":           a.SetID,
		"assessor_id":      a.AssessorID,
		"status":           a.Status,
		"total_score":      a.TotalScore,
		"max_score":        a.MaxPossibleScore,
		"percentage_score": a.PercentageScore,
	}
}
