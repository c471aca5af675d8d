package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/roomdesk-api/internal/models"
	"github.com/campus-ops/roomdesk-api/internal/service"
	appErrors "github.com/campus-ops/roomdesk-api/pkg/errors"
	"github.com/campus-ops/roomdesk-api/pkg/response"
)

type issueService interface {
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
	Get(ctx context.Context, id string) (*models.IssueDetail, error)
	Report(ctx context.Context, actor *models.JWTClaims, req service.ReportIssueRequest) (*models.Issue, error)
	Assign(ctx context.Context, actor *models.JWTClaims, id string, req service.AssignIssueRequest) (*models.Issue, error)
	UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req service.UpdateIssueStatusRequest) (*models.Issue, error)
	AddComment(ctx context.Context, actor *models.JWTClaims, id string, req service.AddCommentRequest) (*models.IssueComment, error)
	Resolve(ctx context.Context, actor *models.JWTClaims, id string) (*service.ResolveResult, error)
}

type exportService interface {
	Issues(ctx context.Context, filter models.IssueFilter, format string) (*service.ExportFile, error)
}

// IssueHandler exposes the issue register endpoints.
type IssueHandler struct {
	issues  issueService
	exports exportService
}

// NewIssueHandler constructs IssueHandler.
func NewIssueHandler(issues issueService, exports exportService) *IssueHandler {
	return &IssueHandler{issues: issues, exports: exports}
}

func issueFilterFromQuery(c *gin.Context) models.IssueFilter {
	return models.IssueFilter{
		Status:     c.DefaultQuery("status", "all"),
		RoomID:     c.Query("roomId"),
		AssignedTo: c.Query("assignedTo"),
		Unassigned: c.Query("unassigned") == "true",
		SortBy:     c.Query("sort"),
	}
}

// List godoc
// @Summary List issues
// @Tags Issues
// @Produce json
// @Param status query string false "Filter by status, or all"
// @Param roomId query string false "Filter by room"
// @Param assignedTo query string false "Filter by assignee"
// @Param unassigned query bool false "Only unassigned issues"
// @Param sort query string false "Sort by priority or status"
// @Success 200 {object} response.Envelope
// @Router /issues [get]
func (h *IssueHandler) List(c *gin.Context) {
	issues, err := h.issues.List(c.Request.Context(), issueFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issues, nil)
}

// Get godoc
// @Summary Get issue detail with its timeline
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id} [get]
func (h *IssueHandler) Get(c *gin.Context) {
	detail, err := h.issues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Report godoc
// @Summary Report a new issue
// @Tags Issues
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.ReportIssueRequest true "Issue payload"
// @Success 201 {object} response.Envelope
// @Router /issues [post]
func (h *IssueHandler) Report(c *gin.Context) {
	var req service.ReportIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	issue, err := h.issues.Report(c.Request.Context(), currentClaims(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issue)
}

// Assign godoc
// @Summary Assign an issue to a user
// @Tags Issues
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body service.AssignIssueRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/assign [post]
func (h *IssueHandler) Assign(c *gin.Context) {
	var req service.AssignIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	issue, err := h.issues.Assign(c.Request.Context(), currentClaims(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// UpdateStatus godoc
// @Summary Move an issue to a new lifecycle state
// @Tags Issues
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body service.UpdateIssueStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/status [put]
func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateIssueStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	issue, err := h.issues.UpdateStatus(c.Request.Context(), currentClaims(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// AddComment godoc
// @Summary Append a comment to the issue timeline
// @Tags Issues
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body service.AddCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Router /issues/{id}/comments [post]
func (h *IssueHandler) AddComment(c *gin.Context) {
	var req service.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	comment, err := h.issues.AddComment(c.Request.Context(), currentClaims(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// Resolve godoc
// @Summary Mark an issue resolved
// @Tags Issues
// @Security BearerAuth
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/resolve [post]
func (h *IssueHandler) Resolve(c *gin.Context) {
	result, err := h.issues.Resolve(c.Request.Context(), currentClaims(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"already_resolved": result.AlreadyResolved}
	response.JSON(c, http.StatusOK, result.Issue, nil, meta)
}

// Export godoc
// @Summary Export the issue register as CSV or PDF
// @Tags Issues
// @Security BearerAuth
// @Produce octet-stream
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "Filter by status, or all"
// @Success 200 {file} binary
// @Router /issues/export [get]
func (h *IssueHandler) Export(c *gin.Context) {
	file, err := h.exports.Issues(c.Request.Context(), issueFilterFromQuery(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
