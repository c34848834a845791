package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/config"
)

// CriterionInput holds criterion fields; nil means unchanged on update
type CriterionInput struct {
	Name        *string
	Code        *string
	Description *string
	MaxRating   *int
	Unit        *string
}

// SetInput holds assessment set fields; nil means unchanged on update
type SetInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// InterfaceCriteriaService manages criteria and assessment sets
type InterfaceCriteriaService interface {
	CreateCriterion(ctx context.Context, actor rules.Actor, in CriterionInput) (*models.Criterion, error)
	UpdateCriterion(ctx context.Context, actor rules.Actor, id uint, in CriterionInput) (*models.Criterion, error)
	DeleteCriterion(ctx context.Context, actor rules.Actor, id uint) error
	GetCriterion(ctx context.Context, id uint) (*models.Criterion, error)
	ListCriteria(ctx context.Context) ([]models.Criterion, error)

	CreateSet(ctx context.Context, actor rules.Actor, in SetInput) (*models.AssessmentSet, error)
	UpdateSet(ctx context.Context, actor rules.Actor, id uint, in SetInput) (*models.AssessmentSet, error)
	DeleteSet(ctx context.Context, actor rules.Actor, id uint) error
	GetSet(ctx context.Context, id uint) (*models.AssessmentSet, error)
	ListSets(ctx context.Context, actor rules.Actor, activeOnly bool) ([]models.AssessmentSet, error)
	PutCriterion(ctx context.Context, actor rules.Actor, setID, criterionID uint, weight, sequence int) (*models.AssessmentSet, error)
	RemoveCriterion(ctx context.Context, actor rules.Actor, setID, criterionID uint) (*models.AssessmentSet, error)
}

type CriteriaService struct {
	DB     *gorm.DB
	Config *config.Config
}

func NewCriteriaService(db *gorm.DB, cfg *config.Config) InterfaceCriteriaService {
	return &CriteriaService{DB: db, Config: cfg}
}

// 1 CreateCriterion adds a criterion; codes are unique
func (s *CriteriaService) CreateCriterion(ctx context.Context, actor rules.Actor, in CriterionInput) (*models.Criterion, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermCriteriaManage); err != nil {
		return nil, err
	}
	if in.Name == nil || in.Code == nil {
		return nil, apperr.Validation(code.ErrValidation, "name and code are required")
	}
	c := &models.Criterion{MaxRating: 5}
	if err := applyCriterionInput(c, in); err != nil {
		return nil, err
	}
	if err := repositories.NewCriteriaRepository(s.DB).Criteria.Create(ctx, c); err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil, apperr.Conflict(code.ErrConflict, "criterion code already exists")
		}
		return nil, err
	}
	return c, nil
}

// 2 UpdateCriterion edits a criterion. The maximum rating is frozen once an
// assessment has rated the criterion.
func (s *CriteriaService) UpdateCriterion(ctx context.Context, actor rules.Actor, id uint, in CriterionInput) (*models.Criterion, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermCriteriaManage); err != nil {
		return nil, err
	}
	var c *models.Criterion
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		var err error
		if c, err = r.Criteria.Criteria.GetByID(ctx, id); err != nil {
			return err
		}
		if in.MaxRating != nil && *in.MaxRating != c.MaxRating {
			inUse, err := r.Criteria.CriterionInUse(ctx, id)
			if err != nil {
				return err
			}
			if inUse {
				return apperr.Conflict(code.ErrCriterionInUse, "max rating cannot change once the criterion has been rated")
			}
		}
		if err := applyCriterionInput(c, in); err != nil {
			return err
		}
		return r.Criteria.Criteria.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// 3 DeleteCriterion removes an unused criterion and its set memberships
func (s *CriteriaService) DeleteCriterion(ctx context.Context, actor rules.Actor, id uint) error {
	if err := rules.RequirePermission(actor.Role, rules.PermCriteriaManage); err != nil {
		return err
	}
	return inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		if _, err := r.Criteria.Criteria.GetByID(ctx, id); err != nil {
			return err
		}
		inUse, err := r.Criteria.CriterionInUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return apperr.Conflict(code.ErrCriterionInUse, "")
		}
		if err := tx.WithContext(ctx).Where("criterion_id = ?", id).Delete(&models.SetCriterion{}).Error; err != nil {
			return apperr.Infrastructure(code.ErrDatabase, err)
		}
		return r.Criteria.Criteria.Delete(ctx, id)
	})
}

// 4 GetCriterion loads one criterion
func (s *CriteriaService) GetCriterion(ctx context.Context, id uint) (*models.Criterion, error) {
	return repositories.NewCriteriaRepository(s.DB).Criteria.GetByID(ctx, id)
}

// 5 ListCriteria lists all criteria by code
func (s *CriteriaService) ListCriteria(ctx context.Context) ([]models.Criterion, error) {
	return repositories.NewCriteriaRepository(s.DB).ListCriteria(ctx)
}

// 6 CreateSet adds an empty assessment set
func (s *CriteriaService) CreateSet(ctx context.Context, actor rules.Actor, in SetInput) (*models.AssessmentSet, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermSetManage); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation(code.ErrValidation, "name is required")
	}
	active := in.IsActive == nil || *in.IsActive
	set := &models.AssessmentSet{Version: 1}
	applySetInput(set, in)
	set.IsActive = true
	sets := repositories.NewCriteriaRepository(s.DB).Sets
	if err := sets.Create(ctx, set); err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil, apperr.Conflict(code.ErrConflict, "assessment set name already exists")
		}
		return nil, err
	}
	// a false flag is a zero value and never reaches the INSERT
	if !active {
		if err := sets.Update(ctx, set.ID, map[string]interface{}{"is_active": false}); err != nil {
			return nil, err
		}
		set.IsActive = false
	}
	return set, nil
}

// 7 UpdateSet edits name, description and the active flag
func (s *CriteriaService) UpdateSet(ctx context.Context, actor rules.Actor, id uint, in SetInput) (*models.AssessmentSet, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermSetManage); err != nil {
		return nil, err
	}
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		set, err := r.Criteria.Sets.GetByID(ctx, id)
		if err != nil {
			return err
		}
		applySetInput(set, in)
		if set.Name == "" {
			return apperr.Validation(code.ErrValidation, "name cannot be empty")
		}
		return r.Criteria.Sets.Update(ctx, id, map[string]interface{}{
			"name":        set.Name,
			"description": set.Description,
			"is_active":   set.IsActive,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetSet(ctx, id)
}

// 8 DeleteSet removes a set that no assessment references
func (s *CriteriaService) DeleteSet(ctx context.Context, actor rules.Actor, id uint) error {
	if err := rules.RequirePermission(actor.Role, rules.PermSetManage); err != nil {
		return err
	}
	return inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		if _, err := r.Criteria.Sets.GetByID(ctx, id); err != nil {
			return err
		}
		inUse, err := r.Criteria.SetInUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return apperr.Conflict(code.ErrConflict, "assessment set is used by assessments, deactivate it instead")
		}
		if err := tx.WithContext(ctx).Where("set_id = ?", id).Delete(&models.SetCriterion{}).Error; err != nil {
			return apperr.Infrastructure(code.ErrDatabase, err)
		}
		return r.Criteria.Sets.Delete(ctx, id)
	})
}

// 9 GetSet loads a set with its weighted criteria
func (s *CriteriaService) GetSet(ctx context.Context, id uint) (*models.AssessmentSet, error) {
	return repositories.NewCriteriaRepository(s.DB).GetSet(ctx, id)
}

// 10 ListSets lists sets; callers without set:manage only see active ones
func (s *CriteriaService) ListSets(ctx context.Context, actor rules.Actor, activeOnly bool) ([]models.AssessmentSet, error) {
	if !rules.HasPermission(actor.Role, rules.PermSetManage) {
		activeOnly = true
	}
	return repositories.NewCriteriaRepository(s.DB).ListSets(ctx, activeOnly)
}

// 11 PutCriterion adds a criterion to a set or changes its weight. Every
// change bumps the set version.
func (s *CriteriaService) PutCriterion(ctx context.Context, actor rules.Actor, setID, criterionID uint, weight, sequence int) (*models.AssessmentSet, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermSetManage); err != nil {
		return nil, err
	}
	if weight <= 0 {
		return nil, apperr.Validation(code.ErrValidation, "weight must be positive")
	}
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		set, err := r.Criteria.Sets.GetByID(ctx, setID)
		if err != nil {
			return err
		}
		if _, err := r.Criteria.Criteria.GetByID(ctx, criterionID); err != nil {
			return err
		}
		if err := r.Criteria.PutCriterion(ctx, &models.SetCriterion{
			SetID:       setID,
			CriterionID: criterionID,
			Weight:      weight,
			Sequence:    sequence,
		}); err != nil {
			return err
		}
		return r.Criteria.Sets.Update(ctx, setID, map[string]interface{}{"version": set.Version + 1})
	})
	if err != nil {
		return nil, err
	}
	return s.GetSet(ctx, setID)
}

// 12 RemoveCriterion drops a criterion from a set
func (s *CriteriaService) RemoveCriterion(ctx context.Context, actor rules.Actor, setID, criterionID uint) (*models.AssessmentSet, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermSetManage); err != nil {
		return nil, err
	}
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		set, err := r.Criteria.Sets.GetByID(ctx, setID)
		if err != nil {
			return err
		}
		if err := r.Criteria.RemoveCriterion(ctx, setID, criterionID); err != nil {
			return err
		}
		return r.Criteria.Sets.Update(ctx, setID, map[string]interface{}{"version": set.Version + 1})
	})
	if err != nil {
		return nil, err
	}
	return s.GetSet(ctx, setID)
}

func applyCriterionInput(c *models.Criterion, in CriterionInput) error {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Code != nil {
		c.Code = strings.ToUpper(strings.TrimSpace(*in.Code))
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.MaxRating != nil {
		c.MaxRating = *in.MaxRating
	}
	if in.Unit != nil {
		c.Unit = strings.TrimSpace(*in.Unit)
	}
	if c.Name == "" || c.Code == "" {
		return apperr.Validation(code.ErrValidation, "name and code cannot be empty")
	}
	if c.MaxRating <= 0 {
		return apperr.Validation(code.ErrValidation, "max rating must be positive")
	}
	return nil
}

func applySetInput(set *models.AssessmentSet, in SetInput) {
	if in.Name != nil {
		set.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		set.Description = *in.Description
	}
	if in.IsActive != nil {
		set.IsActive = *in.IsActive
	}
}
