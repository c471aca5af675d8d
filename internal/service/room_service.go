package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-ops/roomdesk-api/internal/models"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	FindByBuildingNumber(ctx context.Context, building, number string) (*models.Room, error)
	Buildings(ctx context.Context) ([]string, error)
	Autocomplete(ctx context.Context, term string, limit int) ([]models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

// SearchRoomsResult is the payload of the room search endpoint.
type SearchRoomsResult struct {
	Count int           `json:"count"`
	Rooms []models.Room `json:"rooms"`
}

// CreateRoomRequest describes a new room.
type CreateRoomRequest struct {
	Building string `json:"building" validate:"required"`
	Number   string `json:"number" validate:"required"`
	Status   string `json:"status" validate:"omitempty,oneof=Available Occupied"`
	Capacity *int   `json:"capacity" validate:"omitempty,gte=0"`
}

// UpdateRoomRequest carries partial room changes.
type UpdateRoomRequest struct {
	Building *string `json:"building" validate:"omitempty,min=1"`
	Number   *string `json:"number" validate:"omitempty,min=1"`
	Status   *string `json:"status" validate:"omitempty,oneof=Available Occupied"`
	Capacity *int    `json:"capacity" validate:"omitempty,gte=0"`
}

// RoomService implements room search and lifecycle operations.
type RoomService struct {
	rooms    roomRepository
	logger   *zap.Logger
	validate *validator.Validate
}

// NewRoomService constructs a RoomService.
func NewRoomService(rooms roomRepository, logger *zap.Logger) *RoomService {
	return &RoomService{rooms: rooms, logger: logger, validate: validator.New()}
}

// Search returns rooms matching the filter plus the match count.
func (s *RoomService) Search(ctx context.Context, filter models.RoomFilter) (*SearchRoomsResult, error) {
	filter.Search = strings.TrimSpace(filter.Search)

	rooms, err := s.rooms.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search rooms")
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return &SearchRoomsResult{Count: len(rooms), Rooms: rooms}, nil
}

// Get loads one room by id.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// ToggleStatus flips a room between Available and Occupied.
func (s *RoomService) ToggleStatus(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	room.ToggleStatus()
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room status")
	}

	s.logger.Info("room status toggled", zap.String("room_id", room.ID), zap.String("status", string(room.Status)))
	return room, nil
}

// Create adds a room after checking the natural key is free.
func (s *RoomService) Create(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	req.Building = strings.TrimSpace(req.Building)
	req.Number = strings.TrimSpace(req.Number)

	if _, err := s.rooms.FindByBuildingNumber(ctx, req.Building, req.Number); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room %s %s already exists", req.Building, req.Number))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room")
	}

	room := &models.Room{
		Building: req.Building,
		Number:   req.Number,
		Status:   models.RoomStatus(req.Status),
		Capacity: req.Capacity,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}

	s.logger.Info("room created", zap.String("room_id", room.ID), zap.String("building", room.Building), zap.String("number", room.Number))
	return room, nil
}

// Update applies partial changes to a room.
func (s *RoomService) Update(ctx context.Context, id string, req UpdateRoomRequest) (*models.Room, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Building != nil {
		room.Building = strings.TrimSpace(*req.Building)
	}
	if req.Number != nil {
		room.Number = strings.TrimSpace(*req.Number)
	}
	if req.Status != nil {
		room.Status = models.RoomStatus(*req.Status)
	}
	if req.Capacity != nil {
		room.Capacity = req.Capacity
	}

	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	return room, nil
}

// Delete removes a room.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.rooms.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}
	s.logger.Info("room deleted", zap.String("room_id", id))
	return nil
}

// Buildings lists distinct building codes.
func (s *RoomService) Buildings(ctx context.Context) ([]string, error) {
	buildings, err := s.rooms.Buildings(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list buildings")
	}
	if buildings == nil {
		buildings = []string{}
	}
	return buildings, nil
}

// Autocomplete returns up to ten suggestions for the room search box. Terms
// shorter than two characters return an empty list without touching the store.
func (s *RoomService) Autocomplete(ctx context.Context, term string) ([]models.RoomSuggestion, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return []models.RoomSuggestion{}, nil
	}

	rooms, err := s.rooms.Autocomplete(ctx, term, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to autocomplete rooms")
	}

	suggestions := make([]models.RoomSuggestion, 0, len(rooms))
	for _, room := range rooms {
		value := fmt.Sprintf("%s %s", room.Building, room.Number)
		label := fmt.Sprintf("%s (%s)", value, room.Status)
		suggestions = append(suggestions, models.RoomSuggestion{ID: room.ID, Value: value, Label: label})
	}
	return suggestions, nil
}
