package models

import "time"

// IssueStatus is the lifecycle state of a reported issue.
type IssueStatus string

const (
	IssueNew        IssueStatus = "New"
	IssueInProgress IssueStatus = "In Progress"
	IssueResolved   IssueStatus = "Resolved"
)

// ValidIssueStatus reports whether the value is one of the three known states.
func ValidIssueStatus(s string) bool {
	switch IssueStatus(s) {
	case IssueNew, IssueInProgress, IssueResolved:
		return true
	}
	return false
}

// IssuePriority orders issues by urgency.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "Low"
	PriorityMedium IssuePriority = "Medium"
	PriorityHigh   IssuePriority = "High"
)

// CommentType classifies timeline entries on an issue.
type CommentType string

const (
	CommentPlain      CommentType = "comment"
	CommentStatus     CommentType = "status_change"
	CommentAssignment CommentType = "assignment"
	CommentResolution CommentType = "resolution"
)

// Issue is a reported facility problem tied to a room. ReporterID is a free
// text label, not a user reference, so external reporters keep working.
type Issue struct {
	ID          string        `db:"id" json:"id"`
	RoomID      string        `db:"room_id" json:"room_id"`
	ReporterID  string        `db:"reporter_id" json:"reporter_id"`
	Description string        `db:"description" json:"description"`
	Status      IssueStatus   `db:"status" json:"status"`
	AssignedTo  *string       `db:"assigned_to" json:"assigned_to,omitempty"`
	Priority    IssuePriority `db:"priority" json:"priority"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	ResolvedAt  *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
}

// AssignTo sets the assignee and advances a fresh issue into In Progress.
func (i *Issue) AssignTo(userID string) {
	i.AssignedTo = &userID
	if i.Status == IssueNew {
		i.Status = IssueInProgress
	}
}

// Resolve marks the issue resolved and stamps the resolution time.
func (i *Issue) Resolve(now time.Time) {
	i.Status = IssueResolved
	i.ResolvedAt = &now
}

// Reopen moves a resolved issue back into In Progress and clears the
// resolution timestamp.
func (i *Issue) Reopen() {
	i.Status = IssueInProgress
	i.ResolvedAt = nil
}

// IssueComment is an append-only timeline entry on an issue. Entries are
// never mutated or deleted individually; the timeline is the audit log.
type IssueComment struct {
	ID          string      `db:"id" json:"id"`
	IssueID     string      `db:"issue_id" json:"issue_id"`
	UserID      *string     `db:"user_id" json:"user_id,omitempty"`
	CommentText string      `db:"comment_text" json:"comment_text"`
	CommentType CommentType `db:"comment_type" json:"comment_type"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// IssueFilter describes list filters for the issue register.
type IssueFilter struct {
	Status     string
	RoomID     string
	AssignedTo string
	Unassigned bool
	SortBy     string
}

// IssueDetail bundles an issue with its ordered timeline.
type IssueDetail struct {
	Issue    Issue          `json:"issue"`
	Comments []IssueComment `json:"comments"`
}
