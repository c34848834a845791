package controllers

import (
	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/response"
)

// InterfaceCatalogController covers categories and the region tree
type InterfaceCatalogController interface {
	ListCategories()
	CreateCategory()
	UpdateCategory()
	DeleteCategory()
	ListRegions()
	CreateRegion()
	ListDistricts()
	CreateDistrict()
	ListCities()
	CreateCity()
}

// CatalogController serves categories and the region hierarchy
type CatalogController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCatalogController creates a CatalogController
func NewCatalogController(ctx *gin.Context, container *container.ServiceContainer) *CatalogController {
	return &CatalogController{Ctx: ctx, Container: container}
}

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100" example:"Library"`
	Description *string `json:"description" example:"Public libraries"`
	Icon        *string `json:"icon" binding:"omitempty,max=100" example:"book"`
}

// NameRequest creates a region, district or city
type NameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100" example:"Almaty"`
}

// HandleCatalogFunc returns a gin handler dispatching to a CatalogController method
func HandleCatalogFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCatalogController(ctx, container)

		switch method {
		case "listCategories":
			controller.ListCategories()
		case "createCategory":
			controller.CreateCategory()
		case "updateCategory":
			controller.UpdateCategory()
		case "deleteCategory":
			controller.DeleteCategory()
		case "listRegions":
			controller.ListRegions()
		case "createRegion":
			controller.CreateRegion()
		case "listDistricts":
			controller.ListDistricts()
		case "createDistrict":
			controller.CreateDistrict()
		case "listCities":
			controller.ListCities()
		case "createCity":
			controller.CreateCity()
		default:
			invalidMethod(ctx)
		}
	}
}

func (c *CatalogController) service() services.InterfaceCatalogService {
	return c.Container.GetService("catalog").(services.InterfaceCatalogService)
}

// 1. ListCategories lists location categories
// @Summary      List categories
// @Tags         Catalog
// @Produce      json
// @Success      200  {object}  SuccessResponse{data=[]models.Category}
// @Router       /categories [get]
func (c *CatalogController) ListCategories() {
	items, err := c.service().ListCategories(c.Ctx.Request.Context())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}

// 2. CreateCategory adds a category
// @Summary      Create category
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CategoryRequest true "category"
// @Success      201  {object}  SuccessResponse{data=models.Category}
// @Failure      409  {object}  ErrorResponse
// @Router       /categories [post]
func (c *CatalogController) CreateCategory() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req CategoryRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	if req.Name == nil {
		response.ParamError(c.Ctx, "name is required")
		return
	}

	category := &models.Category{Name: *req.Name}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
	}
	if err := c.service().CreateCategory(c.Ctx.Request.Context(), actor, category); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, category)
}

// 3. UpdateCategory changes a category
// @Summary      Update category
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int             true "category ID"
// @Param        request body CategoryRequest true "fields to change"
// @Success      200  {object}  SuccessResponse{data=models.Category}
// @Router       /categories/{id} [put]
func (c *CatalogController) UpdateCategory() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	category, err := c.service().UpdateCategory(c.Ctx.Request.Context(), actor, id, req.Name, req.Description, req.Icon)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, category)
}

// 4. DeleteCategory removes an unused category
// @Summary      Delete category
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "category ID"
// @Success      200  {object}  SuccessResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /categories/{id} [delete]
func (c *CatalogController) DeleteCategory() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteCategory(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 5. ListRegions lists regions
// @Summary      List regions
// @Tags         Catalog
// @Produce      json
// @Success      200  {object}  SuccessResponse{data=[]models.Region}
// @Router       /regions [get]
func (c *CatalogController) ListRegions() {
	items, err := c.service().ListRegions(c.Ctx.Request.Context())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}

// 6. CreateRegion adds a region
// @Summary      Create region
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body NameRequest true "region"
// @Success      201  {object}  SuccessResponse{data=models.Region}
// @Router       /regions [post]
func (c *CatalogController) CreateRegion() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req NameRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	region, err := c.service().CreateRegion(c.Ctx.Request.Context(), actor, req.Name)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, region)
}

// 7. ListDistricts lists the districts of a region
// @Summary      List districts
// @Tags         Catalog
// @Produce      json
// @Param        id path int true "region ID"
// @Success      200  {object}  SuccessResponse{data=[]models.District}
// @Router       /regions/{id}/districts [get]
func (c *CatalogController) ListDistricts() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	items, err := c.service().ListDistricts(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}

// 8. CreateDistrict adds a district to a region
// @Summary      Create district
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int         true "region ID"
// @Param        request body NameRequest true "district"
// @Success      201  {object}  SuccessResponse{data=models.District}
// @Router       /regions/{id}/districts [post]
func (c *CatalogController) CreateDistrict() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req NameRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	district, err := c.service().CreateDistrict(c.Ctx.Request.Context(), actor, id, req.Name)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, district)
}

// 9. ListCities lists the cities of a district
// @Summary      List cities
// @Tags         Catalog
// @Produce      json
// @Param        id path int true "district ID"
// @Success      200  {object}  SuccessResponse{data=[]models.City}
// @Router       /districts/{id}/cities [get]
func (c *CatalogController) ListCities() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	items, err := c.service().ListCities(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}

// 10. CreateCity adds a city to a district
// @Summary      Create city
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int         true "district ID"
// @Param        request body NameRequest true "city"
// @Success      201  {object}  SuccessResponse{data=models.City}
// @Router       /districts/{id}/cities [post]
func (c *CatalogController) CreateCity() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req NameRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	city, err := c.service().CreateCity(c.Ctx.Request.Context(), actor, id, req.Name)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, city)
}
