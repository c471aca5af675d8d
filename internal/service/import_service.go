package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/campus-ops/roomdesk-api/internal/models"
	"github.com/campus-ops/roomdesk-api/pkg/config"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
	"github.com/campus-ops/roomdesk-api/pkg/storage"
	"github.com/campus-ops/roomdesk-api/pkg/tabular"
)

// requiredColumns are the headers every schedule file must carry.
var requiredColumns = []string{"Room", "Date", "OpenTime", "CloseTime"}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
}

type importScheduleRepository interface {
	ImportBatch(ctx context.Context, imp *models.ScheduleImport, rows []models.ImportRow) error
	ListImports(ctx context.Context, limit int) ([]models.ScheduleImport, error)
	FindImportByID(ctx context.Context, id string) (*models.ScheduleImport, error)
	DeleteImport(ctx context.Context, id string) error
	ListByImport(ctx context.Context, importID string) ([]models.Schedule, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.Schedule, error)
}

type uploadStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type importMetrics interface {
	ObserveImport(created, skipped int)
	ObserveInvertedWindow()
}

// ScheduleUpload is an uploaded schedule file ready for processing.
type ScheduleUpload struct {
	Filename   string
	UploadedBy string
	Data       []byte
}

// ImportResult summarises one processed schedule file.
type ImportResult struct {
	Import  models.ScheduleImport `json:"import"`
	Created int                   `json:"created"`
	Skipped int                   `json:"skipped"`
	Message string                `json:"message"`
}

// ImportDownload references a stored import file plus a signed token to fetch it.
type ImportDownload struct {
	ImportID  string    `json:"import_id"`
	Filename  string    `json:"filename"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImportService runs the schedule import pipeline.
type ImportService struct {
	schedules importScheduleRepository
	store     uploadStore
	signer    *storage.SignedURLSigner
	metrics   importMetrics
	cfg       config.UploadsConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewImportService constructs an ImportService. metrics may be nil.
func NewImportService(schedules importScheduleRepository, store uploadStore, signer *storage.SignedURLSigner, metrics importMetrics, cfg config.UploadsConfig, logger *zap.Logger) *ImportService {
	return &ImportService{
		schedules: schedules,
		store:     store,
		signer:    signer,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Import validates and persists one uploaded schedule file. Validation failures
// (bad extension, unreadable content, missing columns) abort before any batch
// is created; individual malformed rows are skipped and counted instead.
func (s *ImportService) Import(ctx context.Context, upload ScheduleUpload) (*ImportResult, error) {
	uploadedBy := strings.TrimSpace(upload.UploadedBy)
	if uploadedBy == "" {
		uploadedBy = "Unknown"
	}

	if err := s.checkExtension(upload.Filename); err != nil {
		return nil, err
	}
	if s.cfg.MaxFileSizeBytes > 0 && int64(len(upload.Data)) > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSizeBytes))
	}

	table, err := tabular.Parse(upload.Filename, upload.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnreadableFile.Code, appErrors.ErrUnreadableFile.Status, appErrors.ErrUnreadableFile.Message)
	}

	if missing := table.MissingColumns(requiredColumns); len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrMissingColumns, fmt.Sprintf("file is missing required columns: %s", strings.Join(missing, ", ")))
	}

	now := s.now().UTC()
	safeName := storage.SanitizeFilename(upload.Filename)
	storedName := fmt.Sprintf("%s_%s", now.Format("20060102150405"), safeName)

	if _, err := s.store.Save(storedName, upload.Data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive uploaded file")
	}

	rows, skipped := s.parseRows(table)

	imp := &models.ScheduleImport{
		Filename:       safeName,
		StoredFilename: storedName,
		UploadedBy:     uploadedBy,
		UploadTime:     now,
		CreatedRows:    len(rows),
		SkippedRows:    skipped,
	}
	if err := s.schedules.ImportBatch(ctx, imp, rows); err != nil {
		if delErr := s.store.Delete(storedName); delErr != nil {
			s.logger.Warn("failed to remove archived file after batch failure", zap.String("file", storedName), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule batch")
	}

	if s.metrics != nil {
		s.metrics.ObserveImport(len(rows), skipped)
	}
	s.logger.Info("schedule file imported",
		zap.String("import_id", imp.ID),
		zap.String("filename", safeName),
		zap.String("uploaded_by", uploadedBy),
		zap.Int("created", len(rows)),
		zap.Int("skipped", skipped))

	return &ImportResult{
		Import:  *imp,
		Created: len(rows),
		Skipped: skipped,
		Message: fmt.Sprintf("Imported %d schedule rows (skipped %d malformed rows)", len(rows), skipped),
	}, nil
}

// Get loads one import batch by id.
func (s *ImportService) Get(ctx context.Context, importID string) (*models.ScheduleImport, error) {
	return s.findImport(ctx, importID)
}

// RecentImports lists the most recent import batches, newest first.
func (s *ImportService) RecentImports(ctx context.Context, limit int) ([]models.ScheduleImport, error) {
	imports, err := s.schedules.ListImports(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list imports")
	}
	if imports == nil {
		imports = []models.ScheduleImport{}
	}
	return imports, nil
}

// Schedules returns the schedule rows created by one import batch.
func (s *ImportService) Schedules(ctx context.Context, importID string) ([]models.Schedule, error) {
	if _, err := s.findImport(ctx, importID); err != nil {
		return nil, err
	}
	schedules, err := s.schedules.ListByImport(ctx, importID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	return schedules, nil
}

// RoomSchedules returns every schedule row for a room ordered by date.
func (s *ImportService) RoomSchedules(ctx context.Context, roomID string) ([]models.Schedule, error) {
	schedules, err := s.schedules.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room schedules")
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	return schedules, nil
}

// Delete removes an import batch, its schedule rows and the archived file.
func (s *ImportService) Delete(ctx context.Context, importID string) error {
	imp, err := s.findImport(ctx, importID)
	if err != nil {
		return err
	}
	if err := s.schedules.DeleteImport(ctx, importID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete import")
	}
	if err := s.store.Delete(imp.StoredFilename); err != nil {
		s.logger.Warn("failed to remove archived import file", zap.String("file", imp.StoredFilename), zap.Error(err))
	}
	s.logger.Info("import deleted", zap.String("import_id", importID))
	return nil
}

// DownloadToken issues a signed, expiring token for the archived file.
func (s *ImportService) DownloadToken(ctx context.Context, importID string) (*ImportDownload, error) {
	imp, err := s.findImport(ctx, importID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(imp.ID, imp.StoredFilename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return &ImportDownload{
		ImportID:  imp.ID,
		Filename:  imp.Filename,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// OpenDownload validates a signed token and opens the archived file.
func (s *ImportService) OpenDownload(ctx context.Context, token string) (*os.File, string, error) {
	importID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	imp, err := s.findImport(ctx, importID)
	if err != nil {
		return nil, "", err
	}
	if imp.StoredFilename != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "download token does not match import")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "archived file not found")
	}
	return file, imp.Filename, nil
}

func (s *ImportService) findImport(ctx context.Context, id string) (*models.ScheduleImport, error) {
	imp, err := s.schedules.FindImportByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load import")
	}
	return imp, nil
}

func (s *ImportService) checkExtension(filename string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	allowed := s.cfg.AllowedExtensions
	if len(allowed) == 0 {
		allowed = []string{"csv", "xlsx"}
	}
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrUnsupportedFile, fmt.Sprintf("unsupported file type %q, allowed: %s", ext, strings.Join(allowed, ", ")))
}

func (s *ImportService) parseRows(table *tabular.Table) ([]models.ImportRow, int) {
	rows := make([]models.ImportRow, 0, len(table.Rows))
	skipped := 0

	for _, raw := range table.Rows {
		building, number, ok := splitRoomLabel(raw["Room"])
		if !ok {
			skipped++
			continue
		}
		date, ok := parseDate(raw["Date"])
		if !ok {
			skipped++
			continue
		}
		openTime, ok := parseClock(raw["OpenTime"])
		if !ok {
			skipped++
			continue
		}
		closeTime, ok := parseClock(raw["CloseTime"])
		if !ok {
			skipped++
			continue
		}

		// Inverted windows are recorded but still imported.
		if openTime >= closeTime && s.metrics != nil {
			s.metrics.ObserveInvertedWindow()
		}

		rows = append(rows, models.ImportRow{
			Building:  building,
			Number:    number,
			Date:      date,
			OpenTime:  openTime,
			CloseTime: closeTime,
		})
	}
	return rows, skipped
}

// splitRoomLabel splits a room label on its first whitespace run. A label with
// no whitespace is all building; the number then defaults to "000".
func splitRoomLabel(label string) (building, number string, ok bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", "", false
	}
	idx := strings.IndexFunc(label, unicode.IsSpace)
	if idx < 0 {
		return label, "000", true
	}
	building = label[:idx]
	number = strings.TrimSpace(label[idx:])
	if number == "" {
		number = "000"
	}
	return building, number, true
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseClock normalises a clock string to 24h HH:MM.
func parseClock(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(raw)); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}
