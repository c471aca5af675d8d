package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-ops/roomdesk-api/internal/models"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
)

type stubRoomRepo struct {
	rooms      []models.Room
	byID       map[string]*models.Room
	byKey      map[string]*models.Room
	lastFilter models.RoomFilter
	updated    *models.Room
	created    *models.Room
	deleted    []string
}

func newStubRoomRepo(rooms ...models.Room) *stubRoomRepo {
	repo := &stubRoomRepo{rooms: rooms, byID: map[string]*models.Room{}, byKey: map[string]*models.Room{}}
	for i := range rooms {
		repo.byID[rooms[i].ID] = &rooms[i]
		repo.byKey[rooms[i].Building+" "+rooms[i].Number] = &rooms[i]
	}
	return repo
}

func (s *stubRoomRepo) List(_ context.Context, filter models.RoomFilter) ([]models.Room, error) {
	s.lastFilter = filter
	return s.rooms, nil
}

func (s *stubRoomRepo) FindByID(_ context.Context, id string) (*models.Room, error) {
	room, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *room
	return &copied, nil
}

func (s *stubRoomRepo) FindByBuildingNumber(_ context.Context, building, number string) (*models.Room, error) {
	room, ok := s.byKey[building+" "+number]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return room, nil
}

func (s *stubRoomRepo) Buildings(_ context.Context) ([]string, error) {
	return []string{"ENG", "SCI"}, nil
}

func (s *stubRoomRepo) Autocomplete(_ context.Context, _ string, _ int) ([]models.Room, error) {
	return s.rooms, nil
}

func (s *stubRoomRepo) Create(_ context.Context, room *models.Room) error {
	room.ID = "room-new"
	if room.Status == "" {
		room.Status = models.RoomAvailable
	}
	s.created = room
	return nil
}

func (s *stubRoomRepo) Update(_ context.Context, room *models.Room) error {
	s.updated = room
	return nil
}

func (s *stubRoomRepo) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestSearchReturnsCountAndRooms(t *testing.T) {
	repo := newStubRoomRepo(
		models.Room{ID: "r1", Building: "ENG", Number: "101", Status: models.RoomAvailable},
		models.Room{ID: "r2", Building: "ENG", Number: "102", Status: models.RoomOccupied},
	)
	svc := NewRoomService(repo, zap.NewNop())

	result, err := svc.Search(context.Background(), models.RoomFilter{Search: " ENG "})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Len(t, result.Rooms, 2)
	assert.Equal(t, "ENG", repo.lastFilter.Search)
}

func TestSearchEmptyResultIsNotNil(t *testing.T) {
	svc := NewRoomService(newStubRoomRepo(), zap.NewNop())

	result, err := svc.Search(context.Background(), models.RoomFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.NotNil(t, result.Rooms)
}

func TestToggleStatusFlips(t *testing.T) {
	repo := newStubRoomRepo(models.Room{ID: "r1", Building: "ENG", Number: "101", Status: models.RoomAvailable})
	svc := NewRoomService(repo, zap.NewNop())

	room, err := svc.ToggleStatus(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RoomOccupied, room.Status)
	require.NotNil(t, repo.updated)
	assert.Equal(t, models.RoomOccupied, repo.updated.Status)
}

func TestToggleStatusUnknownRoom(t *testing.T) {
	svc := NewRoomService(newStubRoomRepo(), zap.NewNop())

	_, err := svc.ToggleStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateRoomRejectsDuplicate(t *testing.T) {
	repo := newStubRoomRepo(models.Room{ID: "r1", Building: "ENG", Number: "101"})
	svc := NewRoomService(repo, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateRoomRequest{Building: "ENG", Number: "101"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestCreateRoomDefaultsStatus(t *testing.T) {
	repo := newStubRoomRepo()
	svc := NewRoomService(repo, zap.NewNop())

	room, err := svc.Create(context.Background(), CreateRoomRequest{Building: " LIB ", Number: " 001 "})
	require.NoError(t, err)
	assert.Equal(t, "LIB", room.Building)
	assert.Equal(t, "001", room.Number)
	assert.Equal(t, models.RoomAvailable, room.Status)
}

func TestAutocompleteShortTermSkipsStore(t *testing.T) {
	repo := newStubRoomRepo(models.Room{ID: "r1", Building: "ENG", Number: "101", Status: models.RoomAvailable})
	svc := NewRoomService(repo, zap.NewNop())

	suggestions, err := svc.Autocomplete(context.Background(), "e")
	require.NoError(t, err)
	assert.Empty(t, suggestions)

	suggestions, err = svc.Autocomplete(context.Background(), "en")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "ENG 101", suggestions[0].Value)
	assert.Equal(t, "ENG 101 (Available)", suggestions[0].Label)
}

func TestDeleteRoom(t *testing.T) {
	repo := newStubRoomRepo(models.Room{ID: "r1", Building: "ENG", Number: "101"})
	svc := NewRoomService(repo, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "r1"))
	assert.Equal(t, []string{"r1"}, repo.deleted)
}
