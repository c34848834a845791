package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/infrastructure/config"
)

const topLocationsLimit = 10

// Overview is the dashboard summary of the platform
type Overview struct {
	UsersByRole         map[string]int64  `json:"users_by_role"`
	LocationsByStatus   map[string]int64  `json:"locations_by_status"`
	AssessmentsByStatus map[string]int64  `json:"assessments_by_status"`
	AverageScore        float64           `json:"average_accessibility_score"`
	TopLocations        []models.Location `json:"top_locations"`
	GeneratedAt         time.Time         `json:"generated_at"`
}

// InterfaceStatisticsService computes platform statistics
type InterfaceStatisticsService interface {
	Overview(ctx context.Context, actor rules.Actor) (*Overview, error)
}

type StatisticsService struct {
	DB     *gorm.DB
	Config *config.Config
	Cache  InterfaceRedisService
}

func NewStatisticsService(db *gorm.DB, cfg *config.Config, cache InterfaceRedisService) InterfaceStatisticsService {
	return &StatisticsService{DB: db, Config: cfg, Cache: cache}
}

// 1 Overview returns the cached summary, computing it on a miss
func (s *StatisticsService) Overview(ctx context.Context, actor rules.Actor) (*Overview, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermStatisticsRead); err != nil {
		return nil, err
	}
	return loadCached(ctx, s.Cache, keyStatsOverview, func() (*Overview, error) {
		return s.compute(ctx)
	})
}

func (s *StatisticsService) compute(ctx context.Context) (*Overview, error) {
	r := repositories.New(s.DB)
	var (
		o   = &Overview{GeneratedAt: time.Now()}
		err error
	)
	if o.UsersByRole, err = r.Users.CountByRole(ctx); err != nil {
		return nil, err
	}
	for _, role := range rules.AllRoles() {
		if _, ok := o.UsersByRole[string(role)]; !ok {
			o.UsersByRole[string(role)] = 0
		}
	}
	if o.LocationsByStatus, err = r.Locations.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if o.AssessmentsByStatus, err = r.Assessments.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if o.AverageScore, err = r.Locations.AverageScore(ctx); err != nil {
		return nil, err
	}
	if o.TopLocations, err = r.Locations.TopByScore(ctx, topLocationsLimit); err != nil {
		return nil, err
	}
	return o, nil
}
