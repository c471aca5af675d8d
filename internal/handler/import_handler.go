package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/roomdesk-api/internal/models"
	"github.com/campus-ops/roomdesk-api/internal/service"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
	"github.com/campus-ops/roomdesk-api/pkg/response"
)

type importService interface {
	Import(ctx context.Context, upload service.ScheduleUpload) (*service.ImportResult, error)
	Get(ctx context.Context, importID string) (*models.ScheduleImport, error)
	RecentImports(ctx context.Context, limit int) ([]models.ScheduleImport, error)
	Schedules(ctx context.Context, importID string) ([]models.Schedule, error)
	RoomSchedules(ctx context.Context, roomID string) ([]models.Schedule, error)
	Delete(ctx context.Context, importID string) error
	DownloadToken(ctx context.Context, importID string) (*service.ImportDownload, error)
	OpenDownload(ctx context.Context, token string) (*os.File, string, error)
}

// ImportHandler exposes the schedule import endpoints.
type ImportHandler struct {
	imports importService
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports importService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// Upload godoc
// @Summary Upload a schedule file (CSV or XLSX)
// @Tags Imports
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param schedule_file formData file true "Schedule file"
// @Param uploaded_by formData string false "Uploader label, defaults to the authenticated user"
// @Success 201 {object} response.Envelope
// @Router /imports [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("schedule_file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schedule_file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnreadableFile.Code, appErrors.ErrUnreadableFile.Status, appErrors.ErrUnreadableFile.Message))
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnreadableFile.Code, appErrors.ErrUnreadableFile.Status, appErrors.ErrUnreadableFile.Message))
		return
	}

	uploadedBy := c.PostForm("uploaded_by")
	if uploadedBy == "" {
		if claims := currentClaims(c); claims != nil {
			uploadedBy = claims.FullName
		}
	}

	result, err := h.imports.Import(c.Request.Context(), service.ScheduleUpload{
		Filename:   fileHeader.Filename,
		UploadedBy: uploadedBy,
		Data:       data,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List recent import batches
// @Tags Imports
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Number of batches, default 5"
// @Success 200 {object} response.Envelope
// @Router /imports [get]
func (h *ImportHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	imports, err := h.imports.RecentImports(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, imports, nil)
}

// Get godoc
// @Summary Get one import batch
// @Tags Imports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {object} response.Envelope
// @Router /imports/{id} [get]
func (h *ImportHandler) Get(c *gin.Context) {
	imp, err := h.imports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, imp, nil)
}

// Schedules godoc
// @Summary List schedule rows created by one import batch
// @Tags Imports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {object} response.Envelope
// @Router /imports/{id}/schedules [get]
func (h *ImportHandler) Schedules(c *gin.Context) {
	schedules, err := h.imports.Schedules(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// RoomSchedules godoc
// @Summary List schedule rows for one room
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/schedules [get]
func (h *ImportHandler) RoomSchedules(c *gin.Context) {
	schedules, err := h.imports.RoomSchedules(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Delete godoc
// @Summary Delete an import batch and its schedule rows
// @Tags Imports
// @Security BearerAuth
// @Param id path string true "Import ID"
// @Success 204
// @Router /imports/{id} [delete]
func (h *ImportHandler) Delete(c *gin.Context) {
	if err := h.imports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DownloadToken godoc
// @Summary Issue a signed, expiring token for the archived source file
// @Tags Imports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {object} response.Envelope
// @Router /imports/{id}/download-token [post]
func (h *ImportHandler) DownloadToken(c *gin.Context) {
	download, err := h.imports.DownloadToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, download, nil)
}

// Download godoc
// @Summary Stream an archived source file using a signed token
// @Tags Imports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /imports/download [get]
func (h *ImportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, filename, err := h.imports.OpenDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/octet-stream")
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
