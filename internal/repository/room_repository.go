package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-ops/roomdesk-api/internal/models"
)

// RoomRepository manages persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a new room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms matching filter criteria ordered by building and number.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, error) {
	base := "FROM rooms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(building ILIKE $%d OR number ILIKE $%d)", len(args)+1, len(args)+2))
		term := "%" + filter.Search + "%"
		args = append(args, term, term)
	}
	if filter.Building != "" {
		conditions = append(conditions, fmt.Sprintf("building = $%d", len(args)+1))
		args = append(args, filter.Building)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.CapacityMin != nil {
		conditions = append(conditions, fmt.Sprintf("capacity >= $%d", len(args)+1))
		args = append(args, *filter.CapacityMin)
	}
	if filter.CapacityMax != nil {
		conditions = append(conditions, fmt.Sprintf("capacity <= $%d", len(args)+1))
		args = append(args, *filter.CapacityMax)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT id, building, number, status, capacity %s ORDER BY building ASC, number ASC", base)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// FindByID returns a room record by ID.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, building, number, status, capacity FROM rooms WHERE id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// FindByBuildingNumber looks a room up by its natural key.
func (r *RoomRepository) FindByBuildingNumber(ctx context.Context, building, number string) (*models.Room, error) {
	const query = `SELECT id, building, number, status, capacity FROM rooms WHERE building = $1 AND number = $2 LIMIT 1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, building, number); err != nil {
		return nil, err
	}
	return &room, nil
}

// Buildings returns the distinct building codes for filter dropdowns.
func (r *RoomRepository) Buildings(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT building FROM rooms ORDER BY building ASC`
	var buildings []string
	if err := r.db.SelectContext(ctx, &buildings, query); err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	return buildings, nil
}

// Autocomplete returns up to limit rooms whose building or number matches term.
func (r *RoomRepository) Autocomplete(ctx context.Context, term string, limit int) ([]models.Room, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf("SELECT id, building, number, status, capacity FROM rooms WHERE building ILIKE $1 OR number ILIKE $1 ORDER BY building ASC, number ASC LIMIT %d", limit)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, "%"+term+"%"); err != nil {
		return nil, fmt.Errorf("autocomplete rooms: %w", err)
	}
	return rooms, nil
}

// Create persists a room record.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.Status == "" {
		room.Status = models.RoomAvailable
	}

	const query = `INSERT INTO rooms (id, building, number, status, capacity) VALUES (:id, :building, :number, :status, :capacity)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update modifies a room record.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	const query = `UPDATE rooms SET building = :building, number = :number, status = :status, capacity = :capacity WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

// Delete removes a room record. Schedules and issues referencing the room are
// removed by the schema's cascade rules; this is an admin-only boundary.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// CountByStatus returns the number of rooms per status for dashboard views.
func (r *RoomRepository) CountByStatus(ctx context.Context) (map[models.RoomStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM rooms GROUP BY status`
	rows := []struct {
		Status models.RoomStatus `db:"status"`
		Count  int               `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count rooms by status: %w", err)
	}
	counts := make(map[models.RoomStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
