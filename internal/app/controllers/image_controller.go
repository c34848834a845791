package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/response"
)

// InterfaceImageController covers location and assessment photos
type InterfaceImageController interface {
	UploadLocationImage()
	ListLocationImages()
	DeleteLocationImage()
	UploadAssessmentImage()
	ListAssessmentImages()
	DeleteAssessmentImage()
}

// ImageController uploads and lists photos
type ImageController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewImageController creates an ImageController
func NewImageController(ctx *gin.Context, container *container.ServiceContainer) *ImageController {
	return &ImageController{Ctx: ctx, Container: container}
}

// HandleImageFunc returns a gin handler dispatching to an ImageController method
func HandleImageFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewImageController(ctx, container)

		switch method {
		case "uploadLocationImage":
			controller.UploadLocationImage()
		case "listLocationImages":
			controller.ListLocationImages()
		case "deleteLocationImage":
			controller.DeleteLocationImage()
		case "uploadAssessmentImage":
			controller.UploadAssessmentImage()
		case "listAssessmentImages":
			controller.ListAssessmentImages()
		case "deleteAssessmentImage":
			controller.DeleteAssessmentImage()
		default:
			invalidMethod(ctx)
		}
	}
}

func (c *ImageController) service() services.InterfaceImageService {
	return c.Container.GetService("image").(services.InterfaceImageService)
}

// readUpload opens the "file" form field. The caller closes the returned file.
func (c *ImageController) readUpload() (services.Upload, func(), bool) {
	header, err := c.Ctx.FormFile("file")
	if err != nil {
		response.ParamError(c.Ctx, "file is required")
		return services.Upload{}, nil, false
	}
	f, err := header.Open()
	if err != nil {
		response.ParamError(c.Ctx, "cannot read uploaded file")
		return services.Upload{}, nil, false
	}
	return services.Upload{
		Reader:      f,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Description: c.Ctx.PostForm("description"),
	}, func() { f.Close() }, true
}

// 1. UploadLocationImage stores a photo of a location
// @Summary      Upload location image
// @Tags         Images
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id          path     int    true  "location ID"
// @Param        file        formData file   true  "jpeg, png, webp or gif up to 10 MiB"
// @Param        description formData string false "caption"
// @Success      201  {object}  SuccessResponse{data=models.LocationImage}
// @Failure      400  {object}  ErrorResponse
// @Router       /locations/{id}/images [post]
func (c *ImageController) UploadLocationImage() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	up, done, ok := c.readUpload()
	if !ok {
		return
	}
	defer done()

	img, err := c.service().UploadLocationImage(c.Ctx.Request.Context(), actor, id, up)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, img)
}

// 2. ListLocationImages lists the photos of a location
// @Summary      List location images
// @Tags         Images
// @Produce      json
// @Param        id path int true "location ID"
// @Success      200  {object}  SuccessResponse{data=[]models.LocationImage}
// @Router       /locations/{id}/images [get]
func (c *ImageController) ListLocationImages() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	items, err := c.service().ListLocationImages(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}

// 3. DeleteLocationImage removes a location photo
// @Summary      Delete location image
// @Tags         Images
// @Produce      json
// @Security     BearerAuth
// @Param        id       path int true "location ID"
// @Param        image_id path int true "image ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /locations/{id}/images/{image_id} [delete]
func (c *ImageController) DeleteLocationImage() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	imageID, ok := parseID(c.Ctx, "image_id")
	if !ok {
		return
	}
	if err := c.service().DeleteLocationImage(c.Ctx.Request.Context(), actor, id, imageID); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 4. UploadAssessmentImage stores evidence for an assessment, optionally tied
// to one rated criterion
// @Summary      Upload assessment image
// @Tags         Images
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id          path     int    true  "assessment ID"
// @Param        file        formData file   true  "jpeg, png, webp or gif up to 10 MiB"
// @Param        detail_id   formData int    false "assessment detail ID"
// @Param        description formData string false "caption"
// @Success      201  {object}  SuccessResponse{data=models.AssessmentImage}
// @Failure      400  {object}  ErrorResponse
// @Router       /assessments/{id}/images [post]
func (c *ImageController) UploadAssessmentImage() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}

	var detailID *uint
	if raw := c.Ctx.PostForm("detail_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || v == 0 {
			response.ParamError(c.Ctx, "invalid detail_id")
			return
		}
		d := uint(v)
		detailID = &d
	}

	up, done, ok := c.readUpload()
	if !ok {
		return
	}
	defer done()

	img, err := c.service().UploadAssessmentImage(c.Ctx.Request.Context(), actor, id, detailID, up)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, img)
}

// 5. ListAssessmentImages lists the evidence of an assessment
// @Summary      List assessment images
// @Tags         Images
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "assessment ID"
// @Success      200  {object}  SuccessResponse{data=[]models.AssessmentImage}
// @Router       /assessments/{id}/images [get]
func (c *ImageController) ListAssessmentImages() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	items, err := c.service().ListAssessmentImages(c.Ctx.Request.Context(), actor, id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}

// 6. DeleteAssessmentImage removes an evidence photo
// @Summary      Delete assessment image
// @Tags         Images
// @Produce      json
// @Security     BearerAuth
// @Param        id       path int true "assessment ID"
// @Param        image_id path int true "image ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /assessments/{id}/images/{image_id} [delete]
func (c *ImageController) DeleteAssessmentImage() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	imageID, ok := parseID(c.Ctx, "image_id")
	if !ok {
		return
	}
	if err := c.service().DeleteAssessmentImage(c.Ctx.Request.Context(), actor, id, imageID); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}
