package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campus-ops/roomdesk-api/internal/models"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
	"github.com/campus-ops/roomdesk-api/pkg/export"
)

var issueExportHeaders = []string{"ID", "Room", "Description", "Status", "Priority", "Reporter", "Assigned To", "Created At", "Resolved At"}

type exportIssueRepository interface {
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
}

type exportRoomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, error)
}

type exportUserRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the issue register as CSV or PDF.
type ExportService struct {
	issues exportIssueRepository
	rooms  exportRoomRepository
	users  exportUserRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(issues exportIssueRepository, rooms exportRoomRepository, users exportUserRepository, logger *zap.Logger) *ExportService {
	return &ExportService{
		issues: issues,
		rooms:  rooms,
		users:  users,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
		now:    time.Now,
	}
}

// Issues renders the filtered issue register in the requested format.
func (s *ExportService) Issues(ctx context.Context, filter models.IssueFilter, format string) (*ExportFile, error) {
	issues, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list issues")
	}

	roomLabels, err := s.roomLabels(ctx)
	if err != nil {
		return nil, err
	}
	userNames, err := s.userNames(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: issueExportHeaders, Rows: make([]map[string]string, 0, len(issues))}
	for _, issue := range issues {
		row := map[string]string{
			"ID":          issue.ID,
			"Room":        roomLabels[issue.RoomID],
			"Description": issue.Description,
			"Status":      string(issue.Status),
			"Priority":    string(issue.Priority),
			"Reporter":    issue.ReporterID,
			"Created At":  issue.CreatedAt.Format("2006-01-02 15:04"),
		}
		if issue.AssignedTo != nil {
			if name, ok := userNames[*issue.AssignedTo]; ok {
				row["Assigned To"] = name
			} else {
				row["Assigned To"] = *issue.AssignedTo
			}
		}
		if issue.ResolvedAt != nil {
			row["Resolved At"] = issue.ResolvedAt.Format("2006-01-02 15:04")
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	stamp := s.now().UTC().Format("20060102")
	switch format {
	case "csv", "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("issues_%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Issue Register")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("issues_%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ExportService) roomLabels(ctx context.Context) (map[string]string, error) {
	rooms, err := s.rooms.List(ctx, models.RoomFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	labels := make(map[string]string, len(rooms))
	for _, room := range rooms {
		labels[room.ID] = fmt.Sprintf("%s %s", room.Building, room.Number)
	}
	return labels, nil
}

func (s *ExportService) userNames(ctx context.Context) (map[string]string, error) {
	users, err := s.users.List(ctx, models.UserFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	names := make(map[string]string, len(users))
	for _, user := range users {
		names[user.ID] = user.FullName
	}
	return names, nil
}
