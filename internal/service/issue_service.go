package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-ops/roomdesk-api/internal/models"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
)

type issueRepository interface {
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
	FindByID(ctx context.Context, id string) (*models.Issue, error)
	Create(ctx context.Context, issue *models.Issue) error
	Update(ctx context.Context, issue *models.Issue) error
	AppendComment(ctx context.Context, comment *models.IssueComment) error
	ListComments(ctx context.Context, issueID string) ([]models.IssueComment, error)
}

type issueRoomRepository interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type issueUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ReportIssueRequest describes a new issue report.
type ReportIssueRequest struct {
	RoomID      string `json:"room_id" validate:"required"`
	ReporterID  string `json:"reporter_id"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
}

// AssignIssueRequest assigns an issue to a user.
type AssignIssueRequest struct {
	AssignedTo string `json:"assigned_to" validate:"required"`
}

// UpdateIssueStatusRequest moves an issue to a new lifecycle state.
type UpdateIssueStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AddCommentRequest appends a plain comment to an issue timeline.
type AddCommentRequest struct {
	CommentText string `json:"comment_text" validate:"required"`
}

// ResolveResult reports the outcome of the quick-resolve operation.
type ResolveResult struct {
	Issue           models.Issue `json:"issue"`
	AlreadyResolved bool         `json:"already_resolved"`
}

// IssueService implements the issue lifecycle and timeline rules. Every
// accepted assignment, status, and resolution change appends exactly one
// timeline entry.
type IssueService struct {
	issues   issueRepository
	rooms    issueRoomRepository
	users    issueUserRepository
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewIssueService constructs an IssueService.
func NewIssueService(issues issueRepository, rooms issueRoomRepository, users issueUserRepository, logger *zap.Logger) *IssueService {
	return &IssueService{
		issues:   issues,
		rooms:    rooms,
		users:    users,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// List returns issues matching the filter.
func (s *IssueService) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	issues, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list issues")
	}
	if issues == nil {
		issues = []models.Issue{}
	}
	return issues, nil
}

// Get loads an issue together with its chronological timeline.
func (s *IssueService) Get(ctx context.Context, id string) (*models.IssueDetail, error) {
	issue, err := s.findIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.issues.ListComments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue timeline")
	}
	if comments == nil {
		comments = []models.IssueComment{}
	}
	return &models.IssueDetail{Issue: *issue, Comments: comments}, nil
}

// Report files a new issue against a room. Priority defaults to Medium and
// the reporter label falls back to the acting user's name, then "Unknown".
func (s *IssueService) Report(ctx context.Context, actor *models.JWTClaims, req ReportIssueRequest) (*models.Issue, error) {
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid issue payload")
	}

	if _, err := s.rooms.FindByID(ctx, req.RoomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	reporter := strings.TrimSpace(req.ReporterID)
	if reporter == "" && actor != nil {
		reporter = actor.FullName
	}
	if reporter == "" {
		reporter = "Unknown"
	}

	priority := models.IssuePriority(req.Priority)
	if priority == "" {
		priority = models.PriorityMedium
	}

	issue := &models.Issue{
		RoomID:      req.RoomID,
		ReporterID:  reporter,
		Description: req.Description,
		Status:      models.IssueNew,
		Priority:    priority,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create issue")
	}

	s.logger.Info("issue reported",
		zap.String("issue_id", issue.ID),
		zap.String("room_id", issue.RoomID),
		zap.String("priority", string(issue.Priority)))
	return issue, nil
}

// Assign hands an issue to a user. A fresh issue moves into In Progress.
func (s *IssueService) Assign(ctx context.Context, actor *models.JWTClaims, id string, req AssignIssueRequest) (*models.Issue, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	issue, err := s.findIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, req.AssignedTo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	issue.AssignTo(user.ID)
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign issue")
	}

	text := fmt.Sprintf("Assigned to %s", user.FullName)
	if err := s.appendTimeline(ctx, issue.ID, actor, text, models.CommentAssignment); err != nil {
		return nil, err
	}

	s.logger.Info("issue assigned", zap.String("issue_id", issue.ID), zap.String("assigned_to", user.ID))
	return issue, nil
}

// UpdateStatus moves an issue to a new state. Unknown states are rejected
// before any mutation. Resolving stamps resolved_at; moving a resolved issue
// back to In Progress clears it.
func (s *IssueService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req UpdateIssueStatusRequest) (*models.Issue, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !models.ValidIssueStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid status %q", req.Status))
	}

	issue, err := s.findIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	from := issue.Status
	to := models.IssueStatus(req.Status)
	switch {
	case to == models.IssueResolved:
		issue.Resolve(s.now().UTC())
	case from == models.IssueResolved && to == models.IssueInProgress:
		issue.Reopen()
	default:
		issue.Status = to
	}

	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update issue status")
	}

	text := fmt.Sprintf("Status changed from %s to %s", from, to)
	if err := s.appendTimeline(ctx, issue.ID, actor, text, models.CommentStatus); err != nil {
		return nil, err
	}

	s.logger.Info("issue status changed",
		zap.String("issue_id", issue.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return issue, nil
}

// AddComment appends a plain comment to the issue timeline.
func (s *IssueService) AddComment(ctx context.Context, actor *models.JWTClaims, id string, req AddCommentRequest) (*models.IssueComment, error) {
	req.CommentText = strings.TrimSpace(req.CommentText)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "comment cannot be empty")
	}

	issue, err := s.findIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	comment := &models.IssueComment{
		IssueID:     issue.ID,
		CommentText: req.CommentText,
		CommentType: models.CommentPlain,
	}
	if actor != nil {
		userID := actor.UserID
		comment.UserID = &userID
	}
	if err := s.issues.AppendComment(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add comment")
	}
	return comment, nil
}

// Resolve is the one-click resolution shortcut. Resolving an already resolved
// issue is a no-op reported back to the caller.
func (s *IssueService) Resolve(ctx context.Context, actor *models.JWTClaims, id string) (*ResolveResult, error) {
	issue, err := s.findIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	if issue.Status == models.IssueResolved {
		return &ResolveResult{Issue: *issue, AlreadyResolved: true}, nil
	}

	issue.Resolve(s.now().UTC())
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve issue")
	}

	if err := s.appendTimeline(ctx, issue.ID, actor, "Issue marked as resolved", models.CommentResolution); err != nil {
		return nil, err
	}

	s.logger.Info("issue resolved", zap.String("issue_id", issue.ID))
	return &ResolveResult{Issue: *issue}, nil
}

func (s *IssueService) findIssue(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := s.issues.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	return issue, nil
}

func (s *IssueService) appendTimeline(ctx context.Context, issueID string, actor *models.JWTClaims, text string, kind models.CommentType) error {
	comment := &models.IssueComment{
		IssueID:     issueID,
		CommentText: text,
		CommentType: kind,
	}
	if actor != nil {
		userID := actor.UserID
		comment.UserID = &userID
	}
	if err := s.issues.AppendComment(ctx, comment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record issue timeline entry")
	}
	return nil
}
