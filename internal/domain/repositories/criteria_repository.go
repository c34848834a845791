package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

// CriteriaRepository serves criteria and assessment sets
type CriteriaRepository struct {
	Criteria BaseRepository[models.Criterion]
	Sets     BaseRepository[models.AssessmentSet]
}

func NewCriteriaRepository(db *gorm.DB) *CriteriaRepository {
	return &CriteriaRepository{
		Criteria: newBase[models.Criterion](db, code.ErrCriterionNotFound),
		Sets:     newBase[models.AssessmentSet](db, code.ErrAssessmentSetNotFound),
	}
}

func (r *CriteriaRepository) ListCriteria(ctx context.Context) ([]models.Criterion, error) {
	var out []models.Criterion
	err := r.Criteria.DB(ctx).Order("code ASC").Find(&out).Error
	return out, translate(err, code.ErrCriterionNotFound)
}

// CriterionInUse reports whether any assessment has rated the criterion
func (r *CriteriaRepository) CriterionInUse(ctx context.Context, criterionID uint) (bool, error) {
	var count int64
	err := r.Criteria.DB(ctx).Model(&models.AssessmentDetail{}).
		Where("criterion_id = ?", criterionID).Count(&count).Error
	return count > 0, translate(err, code.ErrCriterionNotFound)
}

// GetSet loads a set with its criteria in sequence order
func (r *CriteriaRepository) GetSet(ctx context.Context, id uint) (*models.AssessmentSet, error) {
	var set models.AssessmentSet
	err := r.Sets.DB(ctx).
		Preload("Criteria", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC, criterion_id ASC")
		}).
		Preload("Criteria.Criterion").
		First(&set, id).Error
	if err != nil {
		return nil, translate(err, code.ErrAssessmentSetNotFound)
	}
	return &set, nil
}

// ListSets lists sets, optionally only active ones
func (r *CriteriaRepository) ListSets(ctx context.Context, activeOnly bool) ([]models.AssessmentSet, error) {
	var out []models.AssessmentSet
	q := r.Sets.DB(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&out).Error
	return out, translate(err, code.ErrAssessmentSetNotFound)
}

// SetInUse reports whether any assessment references the set
func (r *CriteriaRepository) SetInUse(ctx context.Context, setID uint) (bool, error) {
	var count int64
	err := r.Sets.DB(ctx).Model(&models.Assessment{}).Where("set_id = ?", setID).Count(&count).Error
	return count > 0, translate(err, code.ErrAssessmentSetNotFound)
}

// PutCriterion adds a criterion to a set or updates its weight and sequence
func (r *CriteriaRepository) PutCriterion(ctx context.Context, sc *models.SetCriterion) error {
	err := r.Sets.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "set_id"}, {Name: "criterion_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"weight", "sequence"}),
	}).Create(sc).Error
	return translate(err, code.ErrAssessmentSetNotFound)
}

// RemoveCriterion removes a criterion from a set
func (r *CriteriaRepository) RemoveCriterion(ctx context.Context, setID, criterionID uint) error {
	res := r.Sets.DB(ctx).Where("set_id = ? AND criterion_id = ?", setID, criterionID).Delete(&models.SetCriterion{})
	if res.Error != nil {
		return translate(res.Error, code.ErrCriterionNotInSet)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(code.ErrCriterionNotInSet, "")
	}
	return nil
}

// WeightedCriteria returns the scoring inputs of a set
func (r *CriteriaRepository) WeightedCriteria(ctx context.Context, setID uint) ([]rules.WeightedCriterion, error) {
	var rows []struct {
		CriterionID uint
		Weight      int
		MaxRating   int
	}
	err := r.Sets.DB(ctx).Table("set_criteria").
		Select("set_criteria.criterion_id, set_criteria.weight, accessibility_criteria.max_rating").
		Joins("JOIN accessibility_criteria ON accessibility_criteria.id = set_criteria.criterion_id").
		Where("set_criteria.set_id = ?", setID).
		Order("set_criteria.sequence ASC, set_criteria.criterion_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, code.ErrAssessmentSetNotFound)
	}
	out := make([]rules.WeightedCriterion, len(rows))
	for i, row := range rows {
		out[i] = rules.WeightedCriterion{CriterionID: row.CriterionID, Weight: row.Weight, MaxRating: row.MaxRating}
	}
	return out, nil
}
