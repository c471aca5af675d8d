package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-ops/roomdesk-api/internal/models"
)

// ScheduleRepository provides persistence for schedule imports and their rows.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ImportBatch persists an import record and its schedule rows in a single
// transaction. Rooms referenced by their natural key are resolved against the
// store or created on the fly; nothing is committed unless every row lands.
func (r *ScheduleRepository) ImportBatch(ctx context.Context, imp *models.ScheduleImport, rows []models.ImportRow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if imp.ID == "" {
		imp.ID = uuid.NewString()
	}
	if imp.UploadTime.IsZero() {
		imp.UploadTime = time.Now().UTC()
	}

	if _, err = tx.NamedExecContext(ctx, `INSERT INTO schedule_imports (id, filename, stored_filename, uploaded_by, upload_time, created_rows, skipped_rows) VALUES (:id, :filename, :stored_filename, :uploaded_by, :upload_time, :created_rows, :skipped_rows)`, imp); err != nil {
		return fmt.Errorf("insert schedule import: %w", err)
	}

	// Rooms already resolved in this batch are not looked up twice.
	resolved := make(map[string]string)

	for i := range rows {
		row := rows[i]
		key := row.Building + "\x00" + row.Number
		roomID, ok := resolved[key]
		if !ok {
			roomID, err = r.resolveRoom(ctx, tx, row.Building, row.Number)
			if err != nil {
				return err
			}
			resolved[key] = roomID
		}

		schedule := models.Schedule{
			ID:        uuid.NewString(),
			RoomID:    roomID,
			Date:      row.Date,
			OpenTime:  row.OpenTime,
			CloseTime: row.CloseTime,
			ImportID:  &imp.ID,
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO schedules (id, room_id, date, open_time, close_time, import_id) VALUES (:id, :room_id, :date, :open_time, :close_time, :import_id)`, &schedule); err != nil {
			return fmt.Errorf("insert schedule row: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit import batch: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) resolveRoom(ctx context.Context, tx *sqlx.Tx, building, number string) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id, `SELECT id FROM rooms WHERE building = $1 AND number = $2 LIMIT 1`, building, number)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("resolve room: %w", err)
	}

	room := models.Room{
		ID:       uuid.NewString(),
		Building: building,
		Number:   number,
		Status:   models.RoomAvailable,
	}
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO rooms (id, building, number, status, capacity) VALUES (:id, :building, :number, :status, :capacity)`, &room); err != nil {
		return "", fmt.Errorf("create room during import: %w", err)
	}
	return room.ID, nil
}

// ListImports returns the most recent import batches.
func (r *ScheduleRepository) ListImports(ctx context.Context, limit int) ([]models.ScheduleImport, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf("SELECT id, filename, stored_filename, uploaded_by, upload_time, created_rows, skipped_rows FROM schedule_imports ORDER BY upload_time DESC LIMIT %d", limit)
	var imports []models.ScheduleImport
	if err := r.db.SelectContext(ctx, &imports, query); err != nil {
		return nil, fmt.Errorf("list schedule imports: %w", err)
	}
	return imports, nil
}

// FindImportByID loads one import batch.
func (r *ScheduleRepository) FindImportByID(ctx context.Context, id string) (*models.ScheduleImport, error) {
	const query = `SELECT id, filename, stored_filename, uploaded_by, upload_time, created_rows, skipped_rows FROM schedule_imports WHERE id = $1`
	var imp models.ScheduleImport
	if err := r.db.GetContext(ctx, &imp, query, id); err != nil {
		return nil, err
	}
	return &imp, nil
}

// DeleteImport removes an import batch. Its schedule rows go with it through
// the schema's ON DELETE CASCADE on schedules.import_id.
func (r *ScheduleRepository) DeleteImport(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_imports WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule import: %w", err)
	}
	return nil
}

// ListByImport returns all schedule rows belonging to an import batch.
func (r *ScheduleRepository) ListByImport(ctx context.Context, importID string) ([]models.Schedule, error) {
	const query = `SELECT id, room_id, date, open_time, close_time, import_id FROM schedules WHERE import_id = $1 ORDER BY date ASC, open_time ASC`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, importID); err != nil {
		return nil, fmt.Errorf("list schedules by import: %w", err)
	}
	return schedules, nil
}

// ListByRoom returns schedule rows for a room ordered by date.
func (r *ScheduleRepository) ListByRoom(ctx context.Context, roomID string) ([]models.Schedule, error) {
	const query = `SELECT id, room_id, date, open_time, close_time, import_id FROM schedules WHERE room_id = $1 ORDER BY date ASC, open_time ASC`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, roomID); err != nil {
		return nil, fmt.Errorf("list schedules by room: %w", err)
	}
	return schedules, nil
}
