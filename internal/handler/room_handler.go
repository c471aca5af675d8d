package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/roomdesk-api/internal/models"
	"github.com/campus-ops/roomdesk-api/internal/service"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
	"github.com/campus-ops/roomdesk-api/pkg/response"
)

type roomService interface {
	Search(ctx context.Context, filter models.RoomFilter) (*service.SearchRoomsResult, error)
	Autocomplete(ctx context.Context, term string) ([]models.RoomSuggestion, error)
	Buildings(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*models.Room, error)
	ToggleStatus(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, req service.CreateRoomRequest) (*models.Room, error)
	Update(ctx context.Context, id string, req service.UpdateRoomRequest) (*models.Room, error)
	Delete(ctx context.Context, id string) error
}

// RoomHandler exposes room search and lifecycle endpoints.
type RoomHandler struct {
	rooms roomService
}

// NewRoomHandler constructs RoomHandler.
func NewRoomHandler(rooms roomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// intQuery returns the first query parameter among names that parses as an
// int. Unparseable values are ignored.
func intQuery(c *gin.Context, names ...string) *int {
	for _, name := range names {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		if v, err := strconv.Atoi(raw); err == nil {
			return &v
		}
	}
	return nil
}

// Search godoc
// @Summary Search rooms
// @Tags Rooms
// @Produce json
// @Param q query string false "Match against building or number"
// @Param building query string false "Filter by building"
// @Param status query string false "Filter by status (Available, Occupied)"
// @Param capacity_min query int false "Minimum capacity"
// @Param capacity_max query int false "Maximum capacity"
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *RoomHandler) Search(c *gin.Context) {
	filter := models.RoomFilter{
		Search:   strings.TrimSpace(c.Query("q")),
		Building: c.Query("building"),
		Status:   c.Query("status"),
	}
	filter.CapacityMin = intQuery(c, "capacity_min", "capacityMin")
	filter.CapacityMax = intQuery(c, "capacity_max", "capacityMax")

	result, err := h.rooms.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Autocomplete godoc
// @Summary Autocomplete room labels
// @Tags Rooms
// @Produce json
// @Param term query string true "Partial building or number, two characters minimum"
// @Success 200 {object} response.Envelope
// @Router /rooms/autocomplete [get]
func (h *RoomHandler) Autocomplete(c *gin.Context) {
	suggestions, err := h.rooms.Autocomplete(c.Request.Context(), c.Query("term"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestions, nil)
}

// Buildings godoc
// @Summary List distinct building codes
// @Tags Rooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms/buildings [get]
func (h *RoomHandler) Buildings(c *gin.Context) {
	buildings, err := h.rooms.Buildings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, buildings, nil)
}

// Get godoc
// @Summary Get room detail
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.rooms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// ToggleStatus godoc
// @Summary Toggle a room between Available and Occupied
// @Tags Rooms
// @Security BearerAuth
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/toggle [post]
func (h *RoomHandler) ToggleStatus(c *gin.Context) {
	room, err := h.rooms.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Create godoc
// @Summary Create room
// @Tags Rooms
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req service.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	room, err := h.rooms.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// Update godoc
// @Summary Update room
// @Tags Rooms
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body service.UpdateRoomRequest true "Room changes"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [put]
func (h *RoomHandler) Update(c *gin.Context) {
	var req service.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	room, err := h.rooms.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Delete godoc
// @Summary Delete room
// @Tags Rooms
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 204
// @Router /rooms/{id} [delete]
func (h *RoomHandler) Delete(c *gin.Context) {
	if err := h.rooms.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
