package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "accessible-env-backend/docs"
	"accessible-env-backend/internal/app/controllers"
	"accessible-env-backend/internal/app/middleware"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/error/response"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/internal/infrastructure/metrics"
	"accessible-env-backend/pkg/logger"
)

const (
	catalogCacheTTL = time.Minute
	// multipart bodies beyond this spill to temporary files
	maxMultipartMemory = 16 << 20
)

// SetupRouter builds the engine. ctx bounds the background cleanup of the
// rate limiter.
func SetupRouter(ctx context.Context, c *container.ServiceContainer, cfg *config.Config) *gin.Engine {
	if err := controllers.RegisterValidators(); err != nil {
		logger.Error("register validators: %v", err)
	}

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(),
		middleware.CORS(cfg.CORSAllowedOrigins), middleware.ClientIP())
	r.NoRoute(func(ctx *gin.Context) {
		response.Fail(ctx, code.ErrNotFound, nil)
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig)
	go limiter.RunCleanup(ctx, 5*time.Minute)

	v1 := r.Group("/api/v1")
	v1.Use(limiter.Handler())

	registerRoutes(v1, c)
	return r
}

func registerRoutes(v1 *gin.RouterGroup, c *container.ServiceContainer) {
	jwtService := c.GetService("jwt").(services.InterfaceJWTService)
	auth := middleware.Authentication(jwtService)
	optional := middleware.OptionalAuthentication(jwtService)

	registerPublicRoutes(v1, c)
	registerAuthRoutes(v1, c, auth)
	registerUserRoutes(v1, c, auth)
	registerLocationRoutes(v1, c, auth, optional)
	registerCatalogRoutes(v1, c, auth, optional)
	registerCriteriaRoutes(v1, c, auth)
	registerAssessmentRoutes(v1, c, auth)
	registerNotificationRoutes(v1, c, auth)
	registerAdminRoutes(v1, c, auth)
}

func registerPublicRoutes(v1 *gin.RouterGroup, c *container.ServiceContainer) {
	v1.GET("/ping", controllers.HandleHealthFunc(c, "ping"))
	v1.GET("/health", controllers.HandleHealthFunc(c, "ping"))
	v1.GET("/health/status", controllers.HandleHealthFunc(c, "status"))
}

func registerAuthRoutes(v1 *gin.RouterGroup, c *container.ServiceContainer, auth gin.HandlerFunc) {
	// credential endpoints get a tighter budget than the rest of the API
	authGroup := v1.Group("/auth", middleware.IPRateLimiter(1, 10))
	authGroup.POST("/register", controllers.HandleAuthFunc(c, "register"))
	authGroup.POST("/login", controllers.HandleAuthFunc(c, "login"))
	authGroup.GET("/google/login", controllers.HandleAuthFunc(c, "googleLogin"))
	authGroup.GET("/google/callback", controllers.HandleAuthFunc(c, "googleCallback"))

	v1.GET("/ws", auth, controllers.HandleRealtimeFunc(c))
}

func registerUserRoutes(v1 *gin.RouterGroup, c *container.ServiceContainer, auth gin.HandlerFunc) {
	me := v1.Group("/users/me", auth)
	me.GET("", controllers.HandleAuthFunc(c, "me"))
	me.PUT("", controllers.HandleAuthFunc(c, "updateMe"))
	me.PUT("/password", controllers.HandleAuthFunc(c, "changePassword"))
	me.GET("/favourites", controllers.HandleLocationFunc(c, "listFavourites"))

	users := v1.Group("/users", auth, middleware.RequirePermission(rules.PermUserRead))
	users.GET("", controllers.HandleUserFunc(c, "listUsers"))
	users.GET("/:id", controllers.HandleUserFunc(c, "getUser"))
	users.PUT("/:id/role", controllers.HandleUserFunc(c, "changeRole"))
	users.POST("/:id/ban", controllers.HandleUserFunc(c, "ban"))
	users.POST("/:id/unban", controllers.HandleUserFunc(c, "unban"))
	users.DELETE("/:id", controllers.HandleUserFunc(c, "deleteUser"))
}

func registerLocationRoutes(v1 *gin.RouterGroup, c *container.ServiceContainer, auth, optional gin.HandlerFunc) {
	public := v1.Group("/locations", optional)
	public.GET("", controllers.HandleLocationFunc(c, "listLocations"))
	public.GET("/:id", controllers.HandleLocationFunc(c, "getLocation"))
	public.GET("/:id/reviews", controllers.HandleLocationFunc(c, "listReviews"))
	public.GET("/:id/images", controllers.HandleImageFunc(c, "listLocationImages"))
	public.GET("/:id/assessments", controllers.HandleAssessmentFunc(c, "listByLocation"))

	locations := v1.Group("/locations", auth)
	locations.POST("", controllers.HandleLocationFunc(c, "createLocation"))
	locations.PUT("/:id", controllers.HandleLocationFunc(c, "updateLocation"))
	locations.DELETE("/:id", controllers.HandleLocationFunc(c, "archiveLocation"))
	locations.POST("/:id/stats/refresh", middleware.RequirePermission(rules.PermLocationUpdate),
		controllers.HandleLocationFunc(c, "refreshStats"))

	locations.GET("/:id/inspectors", controllers.HandleLocationFunc(c, "listInspectors"))
	locations.GET("/:id/inspectors/me", controllers.HandleLocationFunc(c, "inspectorStatus"))
	locations.POST("/:id/inspectors", middleware.RequireRole(rules.RoleSuperadmin),
		controllers.HandleLocationFunc(c, "assignInspector"))
	locations.DELETE("/:id/inspectors/:user_id", middleware.RequireRole(rules.RoleSuperadmin),
		controllers.HandleLocationFunc(c, "unassignInspector"))

	locations.POST("/:id/reviews", controllers.HandleLocationFunc(c, "createReview"))
	locations.DELETE("/:id/reviews/:review_id", controllers.HandleLocationFunc(c, "deleteReview"))
	locations.POST("/:id/favourite", controllers.HandleLocationFunc(c, "addFavourite"))
	locations.DELETE("/:id/favourite", controllers.HandleLocationFunc(c, "removeFavourite"))

	locations.POST("/:id/images", controllers.HandleImageFunc(c, "uploadLocationImage"))
	locations.DELETE("/:id/images/:image_id", controllers.HandleImageFunc(c, "deleteLocationImage"))
}

func registerCatalogRoutes(v1 *gin.RouterGroup, c *container.ServiceContainer, auth, optional gin.HandlerFunc) {
	cache := middleware.NewResponseCache(catalogCacheTTL)
	catalog := v1.Group("", cache.Handler())

	catalog.GET("/categories", optional, controllers.HandleCatalogFunc(c, "listCategories"))
	catalog.GET("/regions", optional, controllers.HandleCatalogFunc(c, "listRegions"))
	catalog.GET("/regions/:id/districts", optional, controllers.HandleCatalogFunc(c, "listDistricts"))
	catalog.GET("/districts/:id/cities", optional, controllers.HandleCatalogFunc(c, "listCities"))

	manage := catalog.Group("", auth, middleware.RequirePermission(rules.PermCatalogManage))
	manage.POST("/categories", controllers.HandleCatalogFunc(c, "createCategory"))
	manage.PUT("/categories/:id", controllers.HandleCatalogFunc(c, "updateCategory"))
	manage.DELETE("/categories/:id", controllers.HandleCatalogFunc(c, "deleteCategory"))
	manage.POST("/regions", controllers.HandleCatalogFunc(c, "createRegion"))
	manage.POST("/regions/:id/districts", controllers.HandleCatalogFunc(c, "createDistrict"))
	manage.POST("/districts/:id/cities", controllers.HandleCatalogFunc(c, "createCity"))
}

func registerCriteriaRoutes(v1 *gin.RouterGroup, c *container.ServiceContainer, auth gin.HandlerFunc) {
	criteria := v1.Group("/criteria", auth)
	criteria.GET("", controllers.HandleCriteriaFunc(c, "listCriteria"))
	criteria.GET("/:id", controllers.HandleCriteriaFunc(c, "getCriterion"))
	manageCriteria := criteria.Group("", middleware.RequirePermission(rules.PermCriteriaManage))
	manageCriteria.POST("", controllers.HandleCriteriaFunc(c, "createCriterion"))
	manageCriteria.PUT("/:id", controllers.HandleCriteriaFunc(c, "updateCriterion"))
	manageCriteria.DELETE("/:id", controllers.HandleCriteriaFunc(c, "deleteCriterion"))

	sets := v1.Group("/assessment-sets", auth)
	sets.GET("", controllers.HandleCriteriaFunc(c, "listSets"))
	sets.GET("/:id", controllers.HandleCriteriaFunc(c, "getSet"))
	manageSets := sets.Group("", middleware.RequirePermission(rules.PermSetManage))
	manageSets.POST("", controllers.HandleCriteriaFunc(c, "createSet"))
	manageSets.PUT("/:id", controllers.HandleCriteriaFunc(c, "updateSet"))
	manageSets.DELETE("/:id", controllers.HandleCriteriaFunc(c, "deleteSet"))
	manageSets.PUT("/:id/criteria/:criterion_id", controllers.HandleCriteriaFunc(c, "putSetCriterion"))
	manageSets.DELETE("/:id/criteria/:criterion_id", controllers.HandleCriteriaFunc(c, "removeSetCriterion"))
}

func registerAssessmentRoutes(v1 *gin.RouterGroup, c *container.ServiceContainer, auth gin.HandlerFunc) {
	a := v1.Group("/assessments", auth)
	a.POST("", controllers.HandleAssessmentFunc(c, "createAssessment"))
	a.GET("/mine", controllers.HandleAssessmentFunc(c, "listMine"))
	a.GET("/pending-verification", middleware.RequirePermission(rules.PermAssessmentVerify),
		controllers.HandleAssessmentFunc(c, "listPending"))
	a.GET("/:id", controllers.HandleAssessmentFunc(c, "getAssessment"))
	a.DELETE("/:id", controllers.HandleAssessmentFunc(c, "deleteAssessment"))

	a.PUT("/:id/details", controllers.HandleAssessmentFunc(c, "upsertDetail"))
	a.PUT("/:id/details/:detail_id/review", controllers.HandleAssessmentFunc(c, "reviewDetail"))
	a.POST("/:id/schedule", controllers.HandleAssessmentFunc(c, "schedule"))
	a.POST("/:id/start", controllers.HandleAssessmentFunc(c, "start"))
	a.POST("/:id/submit", controllers.HandleAssessmentFunc(c, "submit"))
	a.POST("/:id/verify", controllers.HandleAssessmentFunc(c, "verify"))
	a.POST("/:id/reject", controllers.HandleAssessmentFunc(c, "reject"))
	a.POST("/:id/reassess", controllers.HandleAssessmentFunc(c, "reassess"))

	a.GET("/:id/comments", controllers.HandleAssessmentFunc(c, "listComments"))
	a.POST("/:id/comments", controllers.HandleAssessmentFunc(c, "addComment"))

	a.GET("/:id/images", controllers.HandleImageFunc(c, "listAssessmentImages"))
	a.POST("/:id/images", controllers.HandleImageFunc(c, "uploadAssessmentImage"))
	a.DELETE("/:id/images/:image_id", controllers.HandleImageFunc(c, "deleteAssessmentImage"))
}

func registerNotificationRoutes(v1 *gin.RouterGroup, c *container.ServiceContainer, auth gin.HandlerFunc) {
	n := v1.Group("/notifications", auth)
	n.GET("", controllers.HandleNotificationFunc(c, "list"))
	n.GET("/unread-count", controllers.HandleNotificationFunc(c, "unreadCount"))
	n.PUT("/read-all", controllers.HandleNotificationFunc(c, "markAllRead"))
	n.PUT("/:id/read", controllers.HandleNotificationFunc(c, "markRead"))
	n.DELETE("/:id", controllers.HandleNotificationFunc(c, "delete"))
}

func registerAdminRoutes(v1 *gin.RouterGroup, c *container.ServiceContainer, auth gin.HandlerFunc) {
	v1.GET("/statistics/overview", auth, middleware.RequirePermission(rules.PermStatisticsRead),
		controllers.HandleStatisticsFunc(c, "overview"))
	v1.GET("/audit-logs", auth, middleware.RequirePermission(rules.PermAuditRead),
		controllers.HandleStatisticsFunc(c, "auditLogs"))
}

// NewServer wraps the engine with the server timeouts
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
