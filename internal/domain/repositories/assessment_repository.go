package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/code"
)

// AssessmentFilter narrows assessment listings
type AssessmentFilter struct {
	LocationID uint
	AssessorID uint
	Status     rules.AssessmentStatus
	// InspectorID limits results to locations assigned to this user
	InspectorID uint
}

type AssessmentRepository struct {
	BaseRepository[models.Assessment]
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{newBase[models.Assessment](db, code.ErrAssessmentNotFound)}
}

// Get loads an assessment with its details, location and set
func (r *AssessmentRepository) Get(ctx context.Context, id uint) (*models.Assessment, error) {
	var a models.Assessment
	err := r.DB(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("criterion_id ASC") }).
		Preload("Details.Criterion").
		Preload("Location").
		Preload("Set").
		First(&a, id).Error
	if err != nil {
		return nil, translate(err, code.ErrAssessmentNotFound)
	}
	return &a, nil
}

// GetForUpdate loads the bare row and locks it for the rest of the transaction
func (r *AssessmentRepository) GetForUpdate(ctx context.Context, id uint) (*models.Assessment, error) {
	var a models.Assessment
	if err := forUpdate(r.DB(ctx)).First(&a, id).Error; err != nil {
		return nil, translate(err, code.ErrAssessmentNotFound)
	}
	return &a, nil
}

// List returns a filtered page of assessments ordered by id
func (r *AssessmentRepository) List(ctx context.Context, f AssessmentFilter, p *models.PaginationQuery) ([]models.Assessment, int64, error) {
	q := r.DB(ctx).Model(&models.Assessment{})
	if f.LocationID != 0 {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.AssessorID != 0 {
		q = q.Where("assessor_id = ?", f.AssessorID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.InspectorID != 0 {
		q = q.Where("location_id IN (?)",
			r.DB(ctx).Model(&models.LocationInspector{}).Select("location_id").Where("user_id = ?", f.InspectorID))
	}

	var total int64
	q, err := paginate(q, p, &total)
	if err != nil {
		return nil, 0, translate(err, code.ErrAssessmentNotFound)
	}
	order := "id ASC"
	if p.Desc {
		order = "id DESC"
	}
	var out []models.Assessment
	if err := q.Order(order).Preload("Location").Preload("Set").Find(&out).Error; err != nil {
		return nil, 0, translate(err, code.ErrAssessmentNotFound)
	}
	return out, total, nil
}

// CountByStatus counts assessments per status
func (r *AssessmentRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countGrouped(r.DB(ctx).Model(&models.Assessment{}), "status")
}

// UpsertDetail inserts or replaces the rating of one criterion
func (r *AssessmentRepository) UpsertDetail(ctx context.Context, d *models.AssessmentDetail) error {
	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "criterion_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "condition_state", "comment", "updated_at"}),
	}).Create(d).Error
	return translate(err, code.ErrAssessmentNotFound)
}

// ListDetails returns the ratings of an assessment
func (r *AssessmentRepository) ListDetails(ctx context.Context, assessmentID uint) ([]models.AssessmentDetail, error) {
	var out []models.AssessmentDetail
	err := r.DB(ctx).Where("assessment_id = ?", assessmentID).Order("criterion_id ASC").Find(&out).Error
	return out, translate(err, code.ErrAssessmentNotFound)
}

// Ratings returns criterion id -> rating for an assessment
func (r *AssessmentRepository) Ratings(ctx context.Context, assessmentID uint) (map[uint]int, error) {
	details, err := r.ListDetails(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int, len(details))
	for _, d := range details {
		out[d.CriterionID] = d.Rating
	}
	return out, nil
}

// GetDetail loads one detail of an assessment
func (r *AssessmentRepository) GetDetail(ctx context.Context, assessmentID, detailID uint) (*models.AssessmentDetail, error) {
	var d models.AssessmentDetail
	err := r.DB(ctx).Where("assessment_id = ? AND id = ?", assessmentID, detailID).First(&d).Error
	if err != nil {
		return nil, translate(err, code.ErrNotFound)
	}
	return &d, nil
}

func (r *AssessmentRepository) CreateComment(ctx context.Context, c *models.AssessmentComment) error {
	return translate(r.DB(ctx).Create(c).Error, code.ErrAssessmentNotFound)
}

func (r *AssessmentRepository) ListComments(ctx context.Context, assessmentID uint) ([]models.AssessmentComment, error) {
	var out []models.AssessmentComment
	err := r.DB(ctx).Preload("User").Where("assessment_id = ?", assessmentID).Order("id ASC").Find(&out).Error
	return out, translate(err, code.ErrAssessmentNotFound)
}

func (r *AssessmentRepository) CreateImage(ctx context.Context, img *models.AssessmentImage) error {
	return translate(r.DB(ctx).Create(img).Error, code.ErrAssessmentNotFound)
}

func (r *AssessmentRepository) ListImages(ctx context.Context, assessmentID uint) ([]models.AssessmentImage, error) {
	var out []models.AssessmentImage
	err := r.DB(ctx).Where("assessment_id = ?", assessmentID).Order("id ASC").Find(&out).Error
	return out, translate(err, code.ErrAssessmentNotFound)
}

func (r *AssessmentRepository) GetImage(ctx context.Context, assessmentID, imageID uint) (*models.AssessmentImage, error) {
	var img models.AssessmentImage
	err := r.DB(ctx).Where("assessment_id = ? AND id = ?", assessmentID, imageID).First(&img).Error
	if err != nil {
		return nil, translate(err, code.ErrNotFound)
	}
	return &img, nil
}

func (r *AssessmentRepository) DeleteImage(ctx context.Context, imageID uint) error {
	return translate(r.DB(ctx).Delete(&models.AssessmentImage{}, imageID).Error, code.ErrNotFound)
}

// ImageKeys lists the object keys of every image of an assessment
func (r *AssessmentRepository) ImageKeys(ctx context.Context, assessmentID uint) ([]string, error) {
	var keys []string
	err := r.DB(ctx).Model(&models.AssessmentImage{}).Where("assessment_id = ?", assessmentID).Pluck("object_key", &keys).Error
	return keys, translate(err, code.ErrAssessmentNotFound)
}
