package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-ops/roomdesk-api/internal/models"
)

func TestImportBatchCreatesMissingRoom(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_imports").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM rooms WHERE building = $1 AND number = $2 LIMIT 1")).
		WithArgs("ENG", "101").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO rooms").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	imp := &models.ScheduleImport{Filename: "schedule.csv", StoredFilename: "20250301_schedule.csv", UploadedBy: "Unknown", CreatedRows: 1}
	rows := []models.ImportRow{{Building: "ENG", Number: "101", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), OpenTime: "08:00", CloseTime: "17:00"}}

	require.NoError(t, repo.ImportBatch(context.Background(), imp, rows))
	assert.NotEmpty(t, imp.ID)
	assert.False(t, imp.UploadTime.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportBatchReusesResolvedRoom(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_imports").WillReturnResult(sqlmock.NewResult(1, 1))
	// Only one lookup despite two rows for the same room.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM rooms WHERE building = $1 AND number = $2 LIMIT 1")).
		WithArgs("ENG", "101").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r1"))
	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	imp := &models.ScheduleImport{Filename: "schedule.csv", CreatedRows: 2}
	rows := []models.ImportRow{
		{Building: "ENG", Number: "101", Date: date, OpenTime: "08:00", CloseTime: "12:00"},
		{Building: "ENG", Number: "101", Date: date.AddDate(0, 0, 1), OpenTime: "13:00", CloseTime: "17:00"},
	}

	require.NoError(t, repo.ImportBatch(context.Background(), imp, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportBatchRollsBackOnRowFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_imports").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM rooms WHERE building = $1 AND number = $2 LIMIT 1")).
		WithArgs("ENG", "101").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r1"))
	mock.ExpectExec("INSERT INTO schedules").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	imp := &models.ScheduleImport{Filename: "schedule.csv"}
	rows := []models.ImportRow{{Building: "ENG", Number: "101", Date: time.Now(), OpenTime: "08:00", CloseTime: "17:00"}}

	require.Error(t, repo.ImportBatch(context.Background(), imp, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListImports(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "filename", "stored_filename", "uploaded_by", "upload_time", "created_rows", "skipped_rows"}).
		AddRow("i1", "spring.csv", "20250301_spring.csv", "Front Desk", now, 12, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, filename, stored_filename, uploaded_by, upload_time, created_rows, skipped_rows FROM schedule_imports ORDER BY upload_time DESC LIMIT 5")).
		WillReturnRows(rows)

	imports, err := repo.ListImports(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, 12, imports[0].CreatedRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteImport(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_imports WHERE id = $1")).
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteImport(context.Background(), "i1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
