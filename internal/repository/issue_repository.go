package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-ops/roomdesk-api/internal/models"
)

// IssueRepository manages persistence for issues and their timelines.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository constructs a new issue repository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// List returns issues matching filter criteria.
func (r *IssueRepository) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	base := "FROM issues WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != "" && filter.Status != "all" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.Unassigned {
		conditions = append(conditions, "assigned_to IS NULL")
	} else if filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	var order string
	switch filter.SortBy {
	case "priority":
		order = "CASE priority WHEN 'High' THEN 1 WHEN 'Medium' THEN 2 ELSE 3 END ASC, created_at DESC"
	case "status":
		order = "status ASC, created_at DESC"
	default:
		order = "created_at DESC"
	}

	query := fmt.Sprintf("SELECT id, room_id, reporter_id, description, status, assigned_to, priority, created_at, resolved_at %s ORDER BY %s", base, order)
	var issues []models.Issue
	if err := r.db.SelectContext(ctx, &issues, query, args...); err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issues, nil
}

// FindByID loads an issue by id.
func (r *IssueRepository) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	const query = `SELECT id, room_id, reporter_id, description, status, assigned_to, priority, created_at, resolved_at FROM issues WHERE id = $1`
	var issue models.Issue
	if err := r.db.GetContext(ctx, &issue, query, id); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Create persists a new issue.
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO issues (id, room_id, reporter_id, description, status, assigned_to, priority, created_at, resolved_at) VALUES (:id, :room_id, :reporter_id, :description, :status, :assigned_to, :priority, :created_at, :resolved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, issue); err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

// Update writes the mutable lifecycle fields of an issue.
func (r *IssueRepository) Update(ctx context.Context, issue *models.Issue) error {
	const query = `UPDATE issues SET status = :status, assigned_to = :assigned_to, priority = :priority, resolved_at = :resolved_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, issue); err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	return nil
}

// AppendComment adds a timeline entry to an issue.
func (r *IssueRepository) AppendComment(ctx context.Context, comment *models.IssueComment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	if comment.CommentType == "" {
		comment.CommentType = models.CommentPlain
	}

	const query = `INSERT INTO issue_comments (id, issue_id, user_id, comment_text, comment_type, created_at) VALUES (:id, :issue_id, :user_id, :comment_text, :comment_type, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("append issue comment: %w", err)
	}
	return nil
}

// ListComments returns the issue timeline in chronological order.
func (r *IssueRepository) ListComments(ctx context.Context, issueID string) ([]models.IssueComment, error) {
	const query = `SELECT id, issue_id, user_id, comment_text, comment_type, created_at FROM issue_comments WHERE issue_id = $1 ORDER BY created_at ASC`
	var comments []models.IssueComment
	if err := r.db.SelectContext(ctx, &comments, query, issueID); err != nil {
		return nil, fmt.Errorf("list issue comments: %w", err)
	}
	return comments, nil
}

// CountByStatus returns the number of issues per status for dashboard views.
func (r *IssueRepository) CountByStatus(ctx context.Context) (map[models.IssueStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM issues GROUP BY status`
	rows := []struct {
		Status models.IssueStatus `db:"status"`
		Count  int                `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count issues by status: %w", err)
	}
	counts := make(map[models.IssueStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
