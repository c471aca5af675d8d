package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campus-ops/roomdesk-api/internal/models"
	"github.com/campus-ops/roomdesk-api/pkg/cache"
	"github.com/campus-ops/roomdesk-api/pkg/config"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:overview"

type dashboardRoomRepository interface {
	CountByStatus(ctx context.Context) (map[models.RoomStatus]int, error)
}

type dashboardIssueRepository interface {
	CountByStatus(ctx context.Context) (map[models.IssueStatus]int, error)
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
}

type dashboardScheduleRepository interface {
	ListImports(ctx context.Context, limit int) ([]models.ScheduleImport, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RoomStats summarises room availability for the dashboard.
type RoomStats struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
}

// IssueStats summarises the issue register for the dashboard.
type IssueStats struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Unassigned int `json:"unassigned"`
}

// DashboardOverview is the aggregate payload behind the dashboard endpoint.
type DashboardOverview struct {
	GeneratedAt   time.Time               `json:"generated_at"`
	Rooms         RoomStats               `json:"rooms"`
	Issues        IssueStats              `json:"issues"`
	RecentImports []models.ScheduleImport `json:"recent_imports"`
}

// DashboardService aggregates counts across rooms, issues and imports. The
// aggregate is cached in Redis for the configured TTL.
type DashboardService struct {
	rooms     dashboardRoomRepository
	issues    dashboardIssueRepository
	schedules dashboardScheduleRepository
	cache     dashboardCache
	cfg       config.DashboardConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewDashboardService constructs a DashboardService. cache may be nil.
func NewDashboardService(rooms dashboardRoomRepository, issues dashboardIssueRepository, schedules dashboardScheduleRepository, kv dashboardCache, cfg config.DashboardConfig, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		rooms:     rooms,
		issues:    issues,
		schedules: schedules,
		cache:     kv,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Overview returns the cached dashboard aggregate, rebuilding it on a miss.
func (s *DashboardService) Overview(ctx context.Context) (*DashboardOverview, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, dashboardCacheKey); err == nil {
			var cached DashboardOverview
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	overview, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(overview); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, string(raw), s.cfg.CacheTTL); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return overview, nil
}

// Invalidate drops the cached aggregate so the next read rebuilds it.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) build(ctx context.Context) (*DashboardOverview, error) {
	roomCounts, err := s.rooms.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rooms")
	}
	issueCounts, err := s.issues.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count issues")
	}
	unassigned, err := s.issues.List(ctx, models.IssueFilter{Unassigned: true, Status: "all"})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unassigned issues")
	}
	imports, err := s.schedules.ListImports(ctx, 5)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent imports")
	}
	if imports == nil {
		imports = []models.ScheduleImport{}
	}

	rooms := RoomStats{
		Available: roomCounts[models.RoomAvailable],
		Occupied:  roomCounts[models.RoomOccupied],
	}
	rooms.Total = rooms.Available + rooms.Occupied

	issues := IssueStats{
		New:        issueCounts[models.IssueNew],
		InProgress: issueCounts[models.IssueInProgress],
		Resolved:   issueCounts[models.IssueResolved],
		Unassigned: len(unassigned),
	}
	issues.Total = issues.New + issues.InProgress + issues.Resolved

	return &DashboardOverview{
		GeneratedAt:   s.now().UTC(),
		Rooms:         rooms,
		Issues:        issues,
		RecentImports: imports,
	}, nil
}
