package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-ops/roomdesk-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestRoomList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	rows := sqlmock.NewRows([]string{"id", "building", "number", "status", "capacity"}).
		AddRow("r1", "ENG", "101", string(models.RoomAvailable), 40).
		AddRow("r2", "ENG", "102", string(models.RoomOccupied), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, building, number, status, capacity FROM rooms WHERE 1=1 ORDER BY building ASC, number ASC")).
		WillReturnRows(rows)

	rooms, err := repo.List(context.Background(), models.RoomFilter{})
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
	assert.Equal(t, "ENG", rooms[0].Building)
	assert.Nil(t, rooms[1].Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomListWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	rows := sqlmock.NewRows([]string{"id", "building", "number", "status", "capacity"}).
		AddRow("r1", "SCI", "201", string(models.RoomAvailable), 80)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, building, number, status, capacity FROM rooms WHERE 1=1 AND (building ILIKE $1 OR number ILIKE $2) AND status = $3 AND capacity >= $4 ORDER BY building ASC, number ASC")).
		WithArgs("%SCI%", "%SCI%", "Available", 50).
		WillReturnRows(rows)

	minCap := 50
	rooms, err := repo.List(context.Background(), models.RoomFilter{
		Search:      "SCI",
		Status:      "Available",
		CapacityMin: &minCap,
	})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomFindByBuildingNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	rows := sqlmock.NewRows([]string{"id", "building", "number", "status", "capacity"}).
		AddRow("r1", "ENG", "101", string(models.RoomAvailable), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, building, number, status, capacity FROM rooms WHERE building = $1 AND number = $2 LIMIT 1")).
		WithArgs("ENG", "101").
		WillReturnRows(rows)

	room, err := repo.FindByBuildingNumber(context.Background(), "ENG", "101")
	require.NoError(t, err)
	assert.Equal(t, "r1", room.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomCreateDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectExec("INSERT INTO rooms").WillReturnResult(sqlmock.NewResult(1, 1))

	room := &models.Room{Building: "LIB", Number: "001"}
	require.NoError(t, repo.Create(context.Background(), room))
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, models.RoomAvailable, room.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomBuildings(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	rows := sqlmock.NewRows([]string{"building"}).AddRow("ENG").AddRow("LIB").AddRow("SCI")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT building FROM rooms ORDER BY building ASC")).
		WillReturnRows(rows)

	buildings, err := repo.Buildings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ENG", "LIB", "SCI"}, buildings)
	assert.NoError(t, mock.ExpectationsWereMet())
}
