package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-ops/roomdesk-api/internal/models"
	"github.com/campus-ops/roomdesk-api/pkg/cache"
	"github.com/campus-ops/roomdesk-api/pkg/config"
)

type stubDashboardRooms struct {
	counts map[models.RoomStatus]int
	calls  int
}

func (s *stubDashboardRooms) CountByStatus(_ context.Context) (map[models.RoomStatus]int, error) {
	s.calls++
	return s.counts, nil
}

type stubDashboardIssues struct {
	counts     map[models.IssueStatus]int
	unassigned []models.Issue
}

func (s *stubDashboardIssues) CountByStatus(_ context.Context) (map[models.IssueStatus]int, error) {
	return s.counts, nil
}

func (s *stubDashboardIssues) List(_ context.Context, _ models.IssueFilter) ([]models.Issue, error) {
	return s.unassigned, nil
}

type stubDashboardSchedules struct {
	imports []models.ScheduleImport
}

func (s *stubDashboardSchedules) ListImports(_ context.Context, _ int) ([]models.ScheduleImport, error) {
	return s.imports, nil
}

type memoryCache struct {
	values map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	val, ok := m.values[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return val, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func newDashboardService(kv dashboardCache) (*DashboardService, *stubDashboardRooms) {
	rooms := &stubDashboardRooms{counts: map[models.RoomStatus]int{
		models.RoomAvailable: 7,
		models.RoomOccupied:  3,
	}}
	issues := &stubDashboardIssues{
		counts: map[models.IssueStatus]int{
			models.IssueNew:        4,
			models.IssueInProgress: 2,
			models.IssueResolved:   6,
		},
		unassigned: []models.Issue{{ID: "i1"}, {ID: "i2"}},
	}
	schedules := &stubDashboardSchedules{imports: []models.ScheduleImport{{ID: "imp-1"}}}
	cfg := config.DashboardConfig{Enabled: true, CacheTTL: time.Minute}
	return NewDashboardService(rooms, issues, schedules, kv, cfg, zap.NewNop()), rooms
}

func TestDashboardOverviewAggregates(t *testing.T) {
	svc, _ := newDashboardService(nil)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, overview.Rooms.Total)
	assert.Equal(t, 7, overview.Rooms.Available)
	assert.Equal(t, 12, overview.Issues.Total)
	assert.Equal(t, 2, overview.Issues.Unassigned)
	require.Len(t, overview.RecentImports, 1)
}

func TestDashboardOverviewUsesCache(t *testing.T) {
	kv := newMemoryCache()
	svc, rooms := newDashboardService(kv)

	_, err := svc.Overview(context.Background())
	require.NoError(t, err)
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rooms.calls)
}

func TestDashboardInvalidateForcesRebuild(t *testing.T) {
	kv := newMemoryCache()
	svc, rooms := newDashboardService(kv)

	_, err := svc.Overview(context.Background())
	require.NoError(t, err)
	svc.Invalidate(context.Background())
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rooms.calls)
}
