package controllers

import (
	"context"

	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/response"
)

// InterfaceAssessmentController covers the assessment workflow
type InterfaceAssessmentController interface {
	CreateAssessment()
	GetAssessment()
	DeleteAssessment()
	ListByLocation()
	ListMine()
	ListPendingVerification()
	UpsertDetail()
	Schedule()
	Start()
	Submit()
	Reassess()
	Verify()
	Reject()
	ReviewDetail()
	ListComments()
	AddComment()
}

// AssessmentController drives the assessment workflow
type AssessmentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAssessmentController creates an AssessmentController
func NewAssessmentController(ctx *gin.Context, container *container.ServiceContainer) *AssessmentController {
	return &AssessmentController{Ctx: ctx, Container: container}
}

// CreateAssessmentRequest starts a draft assessment
type CreateAssessmentRequest struct {
	LocationID uint   `json:"location_id" binding:"required" example:"1"`
	SetID      uint   `json:"set_id" binding:"required" example:"1"`
	Notes      string `json:"notes" binding:"max=2000"`
}

// DetailRequest rates one criterion
type DetailRequest struct {
	CriterionID uint   `json:"criterion_id" binding:"required" example:"3"`
	Rating      *int   `json:"rating" binding:"required,min=0" example:"4"`
	Condition   string `json:"condition" binding:"max=50" example:"good"`
	Comment     string `json:"comment" binding:"max=2000"`
}

// DecisionRequest carries the verifier's comment or rejection reason
type DecisionRequest struct {
	Comment string `json:"comment" binding:"max=2000" example:"Looks right"`
}

// RejectRequest requires a reason
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=2000" example:"Photos missing"`
}

// ReviewDetailRequest annotates one rating
type ReviewDetailRequest struct {
	AdminComment string `json:"admin_comment" binding:"required,max=2000"`
}

// CommentRequest adds a discussion comment
type CommentRequest struct {
	Body string `json:"body" binding:"required,min=1,max=4000"`
}

// HandleAssessmentFunc returns a gin handler dispatching to an AssessmentController method
func HandleAssessmentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAssessmentController(ctx, container)

		switch method {
		case "createAssessment":
			controller.CreateAssessment()
		case "getAssessment":
			controller.GetAssessment()
		case "deleteAssessment":
			controller.DeleteAssessment()
		case "listByLocation":
			controller.ListByLocation()
		case "listMine":
			controller.ListMine()
		case "listPending":
			controller.ListPendingVerification()
		case "upsertDetail":
			controller.UpsertDetail()
		case "schedule":
			controller.Schedule()
		case "start":
			controller.Start()
		case "submit":
			controller.Submit()
		case "verify":
			controller.Verify()
		case "reject":
			controller.Reject()
		case "reassess":
			controller.Reassess()
		case "reviewDetail":
			controller.ReviewDetail()
		case "listComments":
			controller.ListComments()
		case "addComment":
			controller.AddComment()
		default:
			invalidMethod(ctx)
		}
	}
}

func (c *AssessmentController) service() services.InterfaceAssessmentService {
	return c.Container.GetService("assessment").(services.InterfaceAssessmentService)
}

// 1. CreateAssessment opens a draft for a location with an assessment set
// @Summary      Create assessment
// @Tags         Assessments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateAssessmentRequest true "location and set"
// @Success      201  {object}  SuccessResponse{data=models.Assessment}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /assessments [post]
func (c *AssessmentController) CreateAssessment() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req CreateAssessmentRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	a, err := c.service().Create(c.Ctx.Request.Context(), actor, req.LocationID, req.SetID, req.Notes)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, a)
}

// 2. GetAssessment returns an assessment with its details
// @Summary      Get assessment
// @Tags         Assessments
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "assessment ID"
// @Success      200  {object}  SuccessResponse{data=models.Assessment}
// @Failure      404  {object}  ErrorResponse
// @Router       /assessments/{id} [get]
func (c *AssessmentController) GetAssessment() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	a, err := c.service().Get(c.Ctx.Request.Context(), actor, id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, a)
}

// 3. DeleteAssessment removes an assessment and its images
// @Summary      Delete assessment
// @Tags         Assessments
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "assessment ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /assessments/{id} [delete]
func (c *AssessmentController) DeleteAssessment() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().Delete(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 4. ListByLocation lists the assessments of a location visible to the caller
// @Summary      Location assessments
// @Tags         Assessments
// @Produce      json
// @Security     BearerAuth
// @Param        id        path  int true  "location ID"
// @Param        page      query int false "page number"
// @Param        page_size query int false "page size"
// @Success      200  {object}  SuccessResponse{data=response.Page}
// @Router       /locations/{id}/assessments [get]
func (c *AssessmentController) ListByLocation() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	page, ok := bindPage(c.Ctx)
	if !ok {
		return
	}
	items, total, err := c.service().ListByLocation(c.Ctx.Request.Context(), actorOrAnonymous(c.Ctx), id, page)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, response.NewPage(items, total, page.Page, page.PageSize))
}

// 5. ListMine lists the caller's own assessments
// @Summary      My assessments
// @Tags         Assessments
// @Produce      json
// @Security     BearerAuth
// @Param        status    query string false "status filter"
// @Param        page      query int    false "page number"
// @Param        page_size query int    false "page size"
// @Success      200  {object}  SuccessResponse{data=response.Page}
// @Router       /assessments/mine [get]
func (c *AssessmentController) ListMine() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	status := rules.AssessmentStatus(c.Ctx.Query("status"))
	if status != "" && !status.Valid() {
		response.ParamError(c.Ctx, "unknown status")
		return
	}
	page, ok := bindPage(c.Ctx)
	if !ok {
		return
	}
	items, total, err := c.service().ListMine(c.Ctx.Request.Context(), actor, status, page)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, response.NewPage(items, total, page.Page, page.PageSize))
}

// 6. ListPendingVerification lists submitted assessments the caller may verify
// @Summary      Pending verification
// @Tags         Assessments
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int false "page number"
// @Param        page_size query int false "page size"
// @Success      200  {object}  SuccessResponse{data=response.Page}
// @Failure      403  {object}  ErrorResponse
// @Router       /assessments/pending-verification [get]
func (c *AssessmentController) ListPendingVerification() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	page, ok := bindPage(c.Ctx)
	if !ok {
		return
	}
	items, total, err := c.service().ListPendingVerification(c.Ctx.Request.Context(), actor, page)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, response.NewPage(items, total, page.Page, page.PageSize))
}

// 7. UpsertDetail rates one criterion of the assessment set
// @Summary      Rate criterion
// @Tags         Assessments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int           true "assessment ID"
// @Param        request body DetailRequest true "rating"
// @Success      200  {object}  SuccessResponse{data=models.Assessment}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /assessments/{id}/details [put]
func (c *AssessmentController) UpsertDetail() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req DetailRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	a, err := c.service().UpsertDetail(c.Ctx.Request.Context(), actor, id, services.DetailInput{
		CriterionID: req.CriterionID,
		Rating:      *req.Rating,
		Condition:   req.Condition,
		Comment:     req.Comment,
	})
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, a)
}

type transitionFunc func(ctx context.Context, actor rules.Actor, id uint) (*models.Assessment, error)

func (c *AssessmentController) transition(fn transitionFunc) {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	a, err := fn(c.Ctx.Request.Context(), actor, id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, a)
}

// 8. Schedule moves a draft to pending
// @Summary      Schedule assessment
// @Tags         Workflow
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "assessment ID"
// @Success      200  {object}  SuccessResponse{data=models.Assessment}
// @Failure      409  {object}  ErrorResponse
// @Router       /assessments/{id}/schedule [post]
func (c *AssessmentController) Schedule() {
	c.transition(c.service().Schedule)
}

// 9. Start moves a pending assessment to in progress
// @Summary      Start assessment
// @Tags         Workflow
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "assessment ID"
// @Success      200  {object}  SuccessResponse{data=models.Assessment}
// @Failure      409  {object}  ErrorResponse
// @Router       /assessments/{id}/start [post]
func (c *AssessmentController) Start() {
	c.transition(c.service().Start)
}

// 10. Submit freezes the ratings and computes the score
// @Summary      Submit assessment
// @Tags         Workflow
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "assessment ID"
// @Success      200  {object}  SuccessResponse{data=models.Assessment}
// @Failure      409  {object}  ErrorResponse
// @Router       /assessments/{id}/submit [post]
func (c *AssessmentController) Submit() {
	c.transition(c.service().Submit)
}

// 11. Reassess opens a new draft from a rejected assessment
// @Summary      Reassess
// @Tags         Workflow
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "rejected assessment ID"
// @Success      200  {object}  SuccessResponse{data=models.Assessment}
// @Failure      409  {object}  ErrorResponse
// @Router       /assessments/{id}/reassess [post]
func (c *AssessmentController) Reassess() {
	c.transition(c.service().Reassess)
}

// 12. Verify accepts a submitted assessment
// @Summary      Verify assessment
// @Description  Superadmins and admins assigned as inspector of the location
// @Tags         Workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int             true  "assessment ID"
// @Param        request body DecisionRequest false "comment"
// @Success      200  {object}  SuccessResponse{data=models.Assessment}
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /assessments/{id}/verify [post]
func (c *AssessmentController) Verify() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req DecisionRequest
	if c.Ctx.Request.ContentLength != 0 {
		if err := c.Ctx.ShouldBindJSON(&req); err != nil {
			response.BindError(c.Ctx, err)
			return
		}
	}
	a, err := c.service().Verify(c.Ctx.Request.Context(), actor, id, req.Comment)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, a)
}

// 13. Reject sends a submitted assessment back with a reason
// @Summary      Reject assessment
// @Tags         Workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int           true "assessment ID"
// @Param        request body RejectRequest true "reason"
// @Success      200  {object}  SuccessResponse{data=models.Assessment}
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /assessments/{id}/reject [post]
func (c *AssessmentController) Reject() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	a, err := c.service().Reject(c.Ctx.Request.Context(), actor, id, req.Reason)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, a)
}

// 14. ReviewDetail annotates one rating during verification
// @Summary      Review rating
// @Tags         Workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id        path int                 true "assessment ID"
// @Param        detail_id path int                 true "detail ID"
// @Param        request   body ReviewDetailRequest true "comment"
// @Success      200  {object}  SuccessResponse{data=models.AssessmentDetail}
// @Router       /assessments/{id}/details/{detail_id}/review [put]
func (c *AssessmentController) ReviewDetail() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	detailID, ok := parseID(c.Ctx, "detail_id")
	if !ok {
		return
	}
	var req ReviewDetailRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	d, err := c.service().ReviewDetail(c.Ctx.Request.Context(), actor, id, detailID, req.AdminComment)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, d)
}

// 15. ListComments lists the discussion of an assessment
// @Summary      List comments
// @Tags         Assessments
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "assessment ID"
// @Success      200  {object}  SuccessResponse{data=[]models.AssessmentComment}
// @Router       /assessments/{id}/comments [get]
func (c *AssessmentController) ListComments() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	items, err := c.service().ListComments(c.Ctx.Request.Context(), actor, id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}

// 16. AddComment posts to the discussion of an assessment
// @Summary      Add comment
// @Tags         Assessments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int            true "assessment ID"
// @Param        request body CommentRequest true "comment"
// @Success      201  {object}  SuccessResponse{data=models.AssessmentComment}
// @Router       /assessments/{id}/comments [post]
func (c *AssessmentController) AddComment() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	comment, err := c.service().AddComment(c.Ctx.Request.Context(), actor, id, req.Body)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, comment)
}
