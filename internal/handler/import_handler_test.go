package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-ops/roomdesk-api/internal/middleware"
	"github.com/campus-ops/roomdesk-api/internal/models"
	"github.com/campus-ops/roomdesk-api/internal/service"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
)

type importServiceMock struct {
	importResp *service.ImportResult
	importErr  error
	lastUpload service.ScheduleUpload
	deletedID  string
}

func (m *importServiceMock) Import(_ context.Context, upload service.ScheduleUpload) (*service.ImportResult, error) {
	m.lastUpload = upload
	return m.importResp, m.importErr
}

func (m *importServiceMock) Get(_ context.Context, _ string) (*models.ScheduleImport, error) {
	return &models.ScheduleImport{}, nil
}

func (m *importServiceMock) RecentImports(_ context.Context, _ int) ([]models.ScheduleImport, error) {
	return []models.ScheduleImport{}, nil
}

func (m *importServiceMock) Schedules(_ context.Context, _ string) ([]models.Schedule, error) {
	return []models.Schedule{}, nil
}

func (m *importServiceMock) RoomSchedules(_ context.Context, roomID string) ([]models.Schedule, error) {
	return []models.Schedule{{ID: "sch-1", RoomID: roomID, OpenTime: "08:00", CloseTime: "17:00"}}, nil
}

func (m *importServiceMock) Delete(_ context.Context, importID string) error {
	m.deletedID = importID
	return nil
}

func (m *importServiceMock) DownloadToken(_ context.Context, _ string) (*service.ImportDownload, error) {
	return &service.ImportDownload{Token: "signed"}, nil
}

func (m *importServiceMock) OpenDownload(_ context.Context, _ string) (*os.File, string, error) {
	return nil, "", appErrors.ErrUnauthorized
}

func multipartUpload(t *testing.T, field, filename, content string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for key, value := range extra {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestImportHandlerUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &importServiceMock{importResp: &service.ImportResult{Created: 2, Skipped: 1}}
	handler := NewImportHandler(mockSvc)

	body, contentType := multipartUpload(t, "schedule_file", "spring.csv",
		"Room,Date,OpenTime,CloseTime\nENG 101,2025-03-01,08:00,17:00\n",
		map[string]string{"uploaded_by": "Front Desk"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/imports", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req

	handler.Upload(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "spring.csv", mockSvc.lastUpload.Filename)
	assert.Equal(t, "Front Desk", mockSvc.lastUpload.UploadedBy)
	assert.Contains(t, string(mockSvc.lastUpload.Data), "ENG 101")
}

func TestImportHandlerUploadDefaultsUploaderToActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &importServiceMock{importResp: &service.ImportResult{}}
	handler := NewImportHandler(mockSvc)

	body, contentType := multipartUpload(t, "schedule_file", "spring.csv", "Room,Date,OpenTime,CloseTime\n", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/imports", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", FullName: "Alex Admin", Role: models.RoleAdmin})

	handler.Upload(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Alex Admin", mockSvc.lastUpload.UploadedBy)
}

func TestImportHandlerUploadMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(&importServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/imports", bytes.NewBufferString(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	c.Request = req

	handler.Upload(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandlerUploadRejectedFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &importServiceMock{importErr: appErrors.Clone(appErrors.ErrUnsupportedFile, "unsupported file type")}
	handler := NewImportHandler(mockSvc)

	body, contentType := multipartUpload(t, "schedule_file", "spring.pdf", "junk", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/imports", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req

	handler.Upload(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &importServiceMock{}
	handler := NewImportHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/imports/imp-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "imp-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "imp-1", mockSvc.deletedID)
}

func TestImportHandlerRoomSchedules(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(&importServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/rooms/room-1/schedules", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "room-1"}}

	handler.RoomSchedules(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sch-1")
	assert.Contains(t, w.Body.String(), "room-1")
}

func TestImportHandlerDownloadRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(&importServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/imports/download", nil)
	c.Request = req

	handler.Download(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
