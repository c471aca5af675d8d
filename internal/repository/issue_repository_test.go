package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-ops/roomdesk-api/internal/models"
)

func TestIssueListDefaultSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIssueRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "room_id", "reporter_id", "description", "status", "assigned_to", "priority", "created_at", "resolved_at"}).
		AddRow("i1", "r1", "Alex", "Projector broken", string(models.IssueNew), nil, string(models.PriorityMedium), now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, room_id, reporter_id, description, status, assigned_to, priority, created_at, resolved_at FROM issues WHERE 1=1 ORDER BY created_at DESC")).
		WillReturnRows(rows)

	issues, err := repo.List(context.Background(), models.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueNew, issues[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueListPrioritySortAndFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIssueRepository(db)

	rows := sqlmock.NewRows([]string{"id", "room_id", "reporter_id", "description", "status", "assigned_to", "priority", "created_at", "resolved_at"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, room_id, reporter_id, description, status, assigned_to, priority, created_at, resolved_at FROM issues WHERE 1=1 AND status = $1 AND room_id = $2 ORDER BY CASE priority WHEN 'High' THEN 1 WHEN 'Medium' THEN 2 ELSE 3 END ASC, created_at DESC")).
		WithArgs("New", "r1").
		WillReturnRows(rows)

	_, err := repo.List(context.Background(), models.IssueFilter{Status: "New", RoomID: "r1", SortBy: "priority"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueListUnassigned(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIssueRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, room_id, reporter_id, description, status, assigned_to, priority, created_at, resolved_at FROM issues WHERE 1=1 AND assigned_to IS NULL ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "reporter_id", "description", "status", "assigned_to", "priority", "created_at", "resolved_at"}))

	_, err := repo.List(context.Background(), models.IssueFilter{Unassigned: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueCreateDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIssueRepository(db)

	mock.ExpectExec("INSERT INTO issues").WillReturnResult(sqlmock.NewResult(1, 1))

	issue := &models.Issue{RoomID: "r1", ReporterID: "Alex", Description: "Broken chair", Status: models.IssueNew, Priority: models.PriorityMedium}
	require.NoError(t, repo.Create(context.Background(), issue))
	assert.NotEmpty(t, issue.ID)
	assert.False(t, issue.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendCommentDefaultsType(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIssueRepository(db)

	mock.ExpectExec("INSERT INTO issue_comments").WillReturnResult(sqlmock.NewResult(1, 1))

	comment := &models.IssueComment{IssueID: "i1", CommentText: "Looking into it"}
	require.NoError(t, repo.AppendComment(context.Background(), comment))
	assert.Equal(t, models.CommentPlain, comment.CommentType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListComments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIssueRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "issue_id", "user_id", "comment_text", "comment_type", "created_at"}).
		AddRow("c1", "i1", "u1", "Assigned to Jordan", string(models.CommentAssignment), now).
		AddRow("c2", "i1", "u1", "Status changed from New to Resolved", string(models.CommentStatus), now.Add(time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, issue_id, user_id, comment_text, comment_type, created_at FROM issue_comments WHERE issue_id = $1 ORDER BY created_at ASC")).
		WithArgs("i1").
		WillReturnRows(rows)

	comments, err := repo.ListComments(context.Background(), "i1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, models.CommentAssignment, comments[0].CommentType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
