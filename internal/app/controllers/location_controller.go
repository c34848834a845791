package controllers

import (
	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/response"
)

// InterfaceLocationController covers locations and everything hanging off them
type InterfaceLocationController interface {
	ListLocations()
	GetLocation()
	CreateLocation()
	UpdateLocation()
	ArchiveLocation()
	ListInspectors()
	AssignInspector()
	UnassignInspector()
	InspectorStatus()
	RefreshStats()
	ListReviews()
	CreateReview()
	DeleteReview()
	AddFavourite()
	RemoveFavourite()
	ListFavourites()
}

// LocationController handles locations, their inspectors, reviews and
// favourites
type LocationController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewLocationController creates a LocationController
func NewLocationController(ctx *gin.Context, container *container.ServiceContainer) *LocationController {
	return &LocationController{Ctx: ctx, Container: container}
}

// LocationRequest creates or updates a location. Omitted fields are left
// unchanged on update.
type LocationRequest struct {
	Name        *string                `json:"name" binding:"omitempty,min=1,max=200" example:"Central Library"`
	Address     *string                `json:"address" binding:"omitempty,min=1,max=300" example:"1 Abay Ave"`
	Latitude    *float64               `json:"latitude" binding:"omitempty,latitude" example:"43.2389"`
	Longitude   *float64               `json:"longitude" binding:"omitempty,longitude" example:"76.8897"`
	CategoryID  *uint                  `json:"category_id" example:"1"`
	RegionID    *uint                  `json:"region_id" example:"1"`
	DistrictID  *uint                  `json:"district_id" example:"1"`
	CityID      *uint                  `json:"city_id" example:"1"`
	Status      *models.LocationStatus `json:"status" binding:"omitempty,oneof=active inactive under_construction closed archived" example:"active"`
	Description *string                `json:"description"`
	ContactInfo *string                `json:"contact_info" binding:"omitempty,max=255"`
	WebsiteURL  *string                `json:"website_url" binding:"omitempty,url"`
}

func (r LocationRequest) input() services.LocationInput {
	return services.LocationInput{
		Name:        r.Name,
		Address:     r.Address,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		CategoryID:  r.CategoryID,
		RegionID:    r.RegionID,
		DistrictID:  r.DistrictID,
		CityID:      r.CityID,
		Status:      r.Status,
		Description: r.Description,
		ContactInfo: r.ContactInfo,
		WebsiteURL:  r.WebsiteURL,
	}
}

// AssignInspectorRequest names the admin to assign
type AssignInspectorRequest struct {
	UserID uint `json:"user_id" binding:"required" example:"2"`
}

// ReviewRequest rates a location
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5" example:"4"`
	Comment string `json:"comment" binding:"max=2000" example:"Step-free entrance"`
}

// HandleLocationFunc returns a gin handler dispatching to a LocationController method
func HandleLocationFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewLocationController(ctx, container)

		switch method {
		case "listLocations":
			controller.ListLocations()
		case "getLocation":
			controller.GetLocation()
		case "createLocation":
			controller.CreateLocation()
		case "updateLocation":
			controller.UpdateLocation()
		case "archiveLocation":
			controller.ArchiveLocation()
		case "listInspectors":
			controller.ListInspectors()
		case "assignInspector":
			controller.AssignInspector()
		case "unassignInspector":
			controller.UnassignInspector()
		case "inspectorStatus":
			controller.InspectorStatus()
		case "refreshStats":
			controller.RefreshStats()
		case "listReviews":
			controller.ListReviews()
		case "createReview":
			controller.CreateReview()
		case "deleteReview":
			controller.DeleteReview()
		case "addFavourite":
			controller.AddFavourite()
		case "removeFavourite":
			controller.RemoveFavourite()
		case "listFavourites":
			controller.ListFavourites()
		default:
			invalidMethod(ctx)
		}
	}
}

func (c *LocationController) locations() services.InterfaceLocationService {
	return c.Container.GetService("location").(services.InterfaceLocationService)
}

func (c *LocationController) reviews() services.InterfaceReviewService {
	return c.Container.GetService("review").(services.InterfaceReviewService)
}

// 1. ListLocations lists locations visible to the caller
// @Summary      List locations
// @Tags         Locations
// @Produce      json
// @Param        category_id query int    false "category"
// @Param        region_id   query int    false "region"
// @Param        district_id query int    false "district"
// @Param        city_id     query int    false "city"
// @Param        status      query string false "status"
// @Param        search      query string false "name or address"
// @Param        min_score   query number false "minimum overall score"
// @Param        page        query int    false "page number"
// @Param        page_size   query int    false "page size"
// @Success      200  {object}  SuccessResponse{data=response.Page}
// @Router       /locations [get]
func (c *LocationController) ListLocations() {
	var filter repositories.LocationFilter
	if err := c.Ctx.ShouldBindQuery(&filter); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	page, ok := bindPage(c.Ctx)
	if !ok {
		return
	}

	items, total, err := c.locations().List(c.Ctx.Request.Context(), actorOrAnonymous(c.Ctx), filter, page)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, response.NewPage(items, total, page.Page, page.PageSize))
}

// 2. GetLocation returns one location with its statistics
// @Summary      Get location
// @Tags         Locations
// @Produce      json
// @Param        id path int true "location ID"
// @Success      200  {object}  SuccessResponse{data=models.Location}
// @Failure      404  {object}  ErrorResponse
// @Router       /locations/{id} [get]
func (c *LocationController) GetLocation() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	loc, err := c.locations().Get(c.Ctx.Request.Context(), actorOrAnonymous(c.Ctx), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, loc)
}

// 3. CreateLocation registers a location
// @Summary      Create location
// @Tags         Locations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body LocationRequest true "location"
// @Success      201  {object}  SuccessResponse{data=models.Location}
// @Failure      400  {object}  ErrorResponse
// @Router       /locations [post]
func (c *LocationController) CreateLocation() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req LocationRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	loc, err := c.locations().Create(c.Ctx.Request.Context(), actor, req.input())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, loc)
}

// 4. UpdateLocation changes a location
// @Summary      Update location
// @Description  Allowed for the creator and for inspectors, admins and superadmins
// @Tags         Locations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int             true "location ID"
// @Param        request body LocationRequest true "fields to change"
// @Success      200  {object}  SuccessResponse{data=models.Location}
// @Failure      403  {object}  ErrorResponse
// @Router       /locations/{id} [put]
func (c *LocationController) UpdateLocation() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req LocationRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	loc, err := c.locations().Update(c.Ctx.Request.Context(), actor, id, req.input())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, loc)
}

// 5. ArchiveLocation hides a location from public listings
// @Summary      Archive location
// @Tags         Locations
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "location ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /locations/{id} [delete]
func (c *LocationController) ArchiveLocation() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.locations().Archive(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 6. ListInspectors lists the admins assigned to a location
// @Summary      List inspectors
// @Tags         Inspectors
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "location ID"
// @Success      200  {object}  SuccessResponse{data=[]models.LocationInspector}
// @Router       /locations/{id}/inspectors [get]
func (c *LocationController) ListInspectors() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	items, err := c.locations().ListInspectors(c.Ctx.Request.Context(), actor, id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}

// 7. AssignInspector assigns an admin as inspector of a location
// @Summary      Assign inspector
// @Description  Superadmin only; the target must have the admin role
// @Tags         Inspectors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                    true "location ID"
// @Param        request body AssignInspectorRequest true "admin to assign"
// @Success      201  {object}  SuccessResponse{data=models.LocationInspector}
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /locations/{id}/inspectors [post]
func (c *LocationController) AssignInspector() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req AssignInspectorRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	li, err := c.locations().AssignInspector(c.Ctx.Request.Context(), actor, id, req.UserID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, li)
}

// 8. UnassignInspector removes an inspector assignment
// @Summary      Remove inspector
// @Tags         Inspectors
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int true "location ID"
// @Param        user_id path int true "inspector user ID"
// @Success      200  {object}  SuccessResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /locations/{id}/inspectors/{user_id} [delete]
func (c *LocationController) UnassignInspector() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c.Ctx, "user_id")
	if !ok {
		return
	}
	if err := c.locations().UnassignInspector(c.Ctx.Request.Context(), actor, id, userID); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 9. InspectorStatus tells the caller whether they inspect a location
// @Summary      Am I inspector
// @Tags         Inspectors
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "location ID"
// @Success      200  {object}  SuccessResponse
// @Router       /locations/{id}/inspectors/me [get]
func (c *LocationController) InspectorStatus() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	is, err := c.locations().IsInspector(c.Ctx.Request.Context(), actor, id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{"location_id": id, "is_inspector": is})
}

// 10. RefreshStats recomputes the statistics of a location
// @Summary      Refresh location statistics
// @Tags         Locations
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "location ID"
// @Success      200  {object}  SuccessResponse{data=models.LocationStats}
// @Router       /locations/{id}/stats/refresh [post]
func (c *LocationController) RefreshStats() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	stats, err := c.locations().RefreshStats(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, stats)
}

// 11. ListReviews lists the reviews of a location
// @Summary      List reviews
// @Tags         Reviews
// @Produce      json
// @Param        id        path  int true  "location ID"
// @Param        page      query int false "page number"
// @Param        page_size query int false "page size"
// @Success      200  {object}  SuccessResponse{data=response.Page}
// @Router       /locations/{id}/reviews [get]
func (c *LocationController) ListReviews() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	page, ok := bindPage(c.Ctx)
	if !ok {
		return
	}
	items, total, err := c.reviews().ListByLocation(c.Ctx.Request.Context(), id, page)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, response.NewPage(items, total, page.Page, page.PageSize))
}

// 12. CreateReview adds or replaces the caller's review of a location
// @Summary      Review location
// @Tags         Reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int           true "location ID"
// @Param        request body ReviewRequest true "review"
// @Success      201  {object}  SuccessResponse{data=models.Review}
// @Failure      400  {object}  ErrorResponse
// @Router       /locations/{id}/reviews [post]
func (c *LocationController) CreateReview() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	review, err := c.reviews().Create(c.Ctx.Request.Context(), actor, id, req.Rating, req.Comment)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, review)
}

// 13. DeleteReview removes a review
// @Summary      Delete review
// @Tags         Reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id        path int true "location ID"
// @Param        review_id path int true "review ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /locations/{id}/reviews/{review_id} [delete]
func (c *LocationController) DeleteReview() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	reviewID, ok := parseID(c.Ctx, "review_id")
	if !ok {
		return
	}
	if err := c.reviews().Delete(c.Ctx.Request.Context(), actor, id, reviewID); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 14. AddFavourite bookmarks a location
// @Summary      Add favourite
// @Tags         Favourites
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "location ID"
// @Success      200  {object}  SuccessResponse
// @Router       /locations/{id}/favourite [post]
func (c *LocationController) AddFavourite() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.reviews().AddFavourite(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 15. RemoveFavourite removes a bookmark
// @Summary      Remove favourite
// @Tags         Favourites
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "location ID"
// @Success      200  {object}  SuccessResponse
// @Router       /locations/{id}/favourite [delete]
func (c *LocationController) RemoveFavourite() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.reviews().RemoveFavourite(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 16. ListFavourites lists the caller's bookmarked locations
// @Summary      My favourites
// @Tags         Favourites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SuccessResponse{data=[]models.Location}
// @Router       /users/me/favourites [get]
func (c *LocationController) ListFavourites() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	items, err := c.reviews().ListFavourites(c.Ctx.Request.Context(), actor)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, items)
}
