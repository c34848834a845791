package controllers

import (
	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/response"
)

// InterfaceCriteriaController covers criteria and assessment sets
type InterfaceCriteriaController interface {
	ListCriteria()
	GetCriterion()
	CreateCriterion()
	UpdateCriterion()
	DeleteCriterion()
	ListSets()
	GetSet()
	CreateSet()
	UpdateSet()
	DeleteSet()
	PutSetCriterion()
	RemoveSetCriterion()
}

// CriteriaController manages criteria and assessment sets
type CriteriaController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCriteriaController creates a CriteriaController
func NewCriteriaController(ctx *gin.Context, container *container.ServiceContainer) *CriteriaController {
	return &CriteriaController{Ctx: ctx, Container: container}
}

// CriterionRequest creates or updates a criterion
type CriterionRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200" example:"Step-free entrance"`
	Code        *string `json:"code" binding:"omitempty,min=1,max=50" example:"ENT-01"`
	Description *string `json:"description"`
	MaxRating   *int    `json:"max_rating" binding:"omitempty,min=1,max=100" example:"5"`
	Unit        *string `json:"unit" binding:"omitempty,max=50"`
}

// SetRequest creates or updates an assessment set
type SetRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200" example:"Public buildings"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active" example:"true"`
}

// SetCriterionRequest adds a criterion to a set or changes its weight
type SetCriterionRequest struct {
	Weight   int `json:"weight" binding:"required,min=1,max=100" example:"5"`
	Sequence int `json:"sequence" binding:"min=0" example:"1"`
}

// HandleCriteriaFunc returns a gin handler dispatching to a CriteriaController method
func HandleCriteriaFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCriteriaController(ctx, container)

		switch method {
		case "listCriteria":
			controller.ListCriteria()
		case "getCriterion":
			controller.GetCriterion()
		case "createCriterion":
			controller.CreateCriterion()
		case "updateCriterion":
			controller.UpdateCriterion()
		case "deleteCriterion":
			controller.DeleteCriterion()
		case "listSets":
			controller.ListSets()
		case "getSet":
			controller.GetSet()
		case "createSet":
			controller.CreateSet()
		case "updateSet":
			controller.UpdateSet()
		case "deleteSet":
			controller.DeleteSet()
		case "putSetCriterion":
			controller.PutSetCriterion()
		case "removeSetCriterion":
			controller.RemoveSetCriterion()
		default:
			invalidMethod(ctx)
		}
	}
}

func (c *CriteriaController) service() services.InterfaceCriteriaService {
	return c.Container.GetService("criteria").(services.InterfaceCriteriaService)
}

func (r CriterionRequest) input() services.CriterionInput {
	return services.CriterionInput{
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		MaxRating:   r.MaxRating,
		Unit:        r.Unit,
	}
}

func (r SetRequest) input() services.SetInput {
	return services.SetInput{Name: r.Name, Description: r.Description, IsActive: r.IsActive}
}

// 1. ListCriteria lists every criterion
// @Summary      List criteria
// @Tags         Criteria
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SuccessResponse{data=[]models.Criterion}
// @Router       /criteria [get]
func (c *CriteriaController) ListCriteria() {
	items, err := c.service().ListCriteria(c.Ctx.Request.Context())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}

// 2. GetCriterion returns one criterion
// @Summary      Get criterion
// @Tags         Criteria
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "criterion ID"
// @Success      200  {object}  SuccessResponse{data=models.Criterion}
// @Failure      404  {object}  ErrorResponse
// @Router       /criteria/{id} [get]
func (c *CriteriaController) GetCriterion() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	item, err := c.service().GetCriterion(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, item)
}

// 3. CreateCriterion adds a criterion
// @Summary      Create criterion
// @Tags         Criteria
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CriterionRequest true "criterion"
// @Success      201  {object}  SuccessResponse{data=models.Criterion}
// @Failure      409  {object}  ErrorResponse
// @Router       /criteria [post]
func (c *CriteriaController) CreateCriterion() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req CriterionRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	item, err := c.service().CreateCriterion(c.Ctx.Request.Context(), actor, req.input())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, item)
}

// 4. UpdateCriterion changes a criterion
// @Summary      Update criterion
// @Tags         Criteria
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int              true "criterion ID"
// @Param        request body CriterionRequest true "fields to change"
// @Success      200  {object}  SuccessResponse{data=models.Criterion}
// @Router       /criteria/{id} [put]
func (c *CriteriaController) UpdateCriterion() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req CriterionRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	item, err := c.service().UpdateCriterion(c.Ctx.Request.Context(), actor, id, req.input())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, item)
}

// 5. DeleteCriterion removes a criterion no assessment uses
// @Summary      Delete criterion
// @Tags         Criteria
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "criterion ID"
// @Success      200  {object}  SuccessResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /criteria/{id} [delete]
func (c *CriteriaController) DeleteCriterion() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteCriterion(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 6. ListSets lists assessment sets; non-admins only see active ones
// @Summary      List assessment sets
// @Tags         Assessment sets
// @Produce      json
// @Security     BearerAuth
// @Param        active query bool false "only active sets"
// @Success      200  {object}  SuccessResponse{data=[]models.AssessmentSet}
// @Router       /assessment-sets [get]
func (c *CriteriaController) ListSets() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	activeOnly := c.Ctx.Query("active") == "true"
	items, err := c.service().ListSets(c.Ctx.Request.Context(), actor, activeOnly)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}

// 7. GetSet returns a set with its weighted criteria
// @Summary      Get assessment set
// @Tags         Assessment sets
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "set ID"
// @Success      200  {object}  SuccessResponse{data=models.AssessmentSet}
// @Failure      404  {object}  ErrorResponse
// @Router       /assessment-sets/{id} [get]
func (c *CriteriaController) GetSet() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	set, err := c.service().GetSet(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, set)
}

// 8. CreateSet adds an assessment set
// @Summary      Create assessment set
// @Tags         Assessment sets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SetRequest true "set"
// @Success      201  {object}  SuccessResponse{data=models.AssessmentSet}
// @Router       /assessment-sets [post]
func (c *CriteriaController) CreateSet() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req SetRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	set, err := c.service().CreateSet(c.Ctx.Request.Context(), actor, req.input())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, set)
}

// 9. UpdateSet changes an assessment set
// @Summary      Update assessment set
// @Tags         Assessment sets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int        true "set ID"
// @Param        request body SetRequest true "fields to change"
// @Success      200  {object}  SuccessResponse{data=models.AssessmentSet}
// @Router       /assessment-sets/{id} [put]
func (c *CriteriaController) UpdateSet() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req SetRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	set, err := c.service().UpdateSet(c.Ctx.Request.Context(), actor, id, req.input())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, set)
}

// 10. DeleteSet removes an assessment set
// @Summary      Delete assessment set
// @Tags         Assessment sets
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "set ID"
// @Success      200  {object}  SuccessResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /assessment-sets/{id} [delete]
func (c *CriteriaController) DeleteSet() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteSet(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 11. PutSetCriterion adds a criterion to a set or updates its weight
// @Summary      Put criterion in set
// @Tags         Assessment sets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id           path int                 true "set ID"
// @Param        criterion_id path int                 true "criterion ID"
// @Param        request      body SetCriterionRequest true "weight and order"
// @Success      200  {object}  SuccessResponse{data=models.AssessmentSet}
// @Router       /assessment-sets/{id}/criteria/{criterion_id} [put]
func (c *CriteriaController) PutSetCriterion() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	criterionID, ok := parseID(c.Ctx, "criterion_id")
	if !ok {
		return
	}
	var req SetCriterionRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	set, err := c.service().PutCriterion(c.Ctx.Request.Context(), actor, id, criterionID, req.Weight, req.Sequence)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, set)
}

// 12. RemoveSetCriterion takes a criterion out of a set
// @Summary      Remove criterion from set
// @Tags         Assessment sets
// @Produce      json
// @Security     BearerAuth
// @Param        id           path int true "set ID"
// @Param        criterion_id path int true "criterion ID"
// @Success      200  {object}  SuccessResponse{data=models.AssessmentSet}
// @Router       /assessment-sets/{id}/criteria/{criterion_id} [delete]
func (c *CriteriaController) RemoveSetCriterion() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	criterionID, ok := parseID(c.Ctx, "criterion_id")
	if !ok {
		return
	}
	set, err := c.service().RemoveCriterion(c.Ctx.Request.Context(), actor, id, criterionID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, set)
}
