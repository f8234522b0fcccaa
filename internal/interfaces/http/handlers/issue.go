// internal/interfaces/http/handlers/issue.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/breakroom-backend/internal/domain/issue"
)

// IssueHandler handles issue report requests
type IssueHandler struct {
	issues *issue.Service
}

// NewIssueHandler creates a new issue handler
func NewIssueHandler(issues *issue.Service) *IssueHandler {
	return &IssueHandler{issues: issues}
}

// Create handles POST /api/issues
func (h *IssueHandler) Create(c *gin.Context) {
	var req issue.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.issues.CreateReport(c.Request.Context(), currentUserID(c), &req, actorFrom(c))
	if err != nil {
		if errors.Is(err, issue.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue report"})
		return
	}

	c.JSON(http.StatusCreated, report)
}

// List handles GET /api/issues. Customers see their own reports; admins see
// every report, filterable by status.
func (h *IssueHandler) List(c *gin.Context) {
	var (
		reports []issue.Report
		err     error
	)
	if isAdmin(c) {
		reports, err = h.issues.ListAll(c.Request.Context(), c.Query("status"))
	} else {
		reports, err = h.issues.ListForCustomer(c.Request.Context(), currentUserID(c))
	}
	if err != nil {
		if errors.Is(err, issue.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list issue reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"issues": reports, "count": len(reports)})
}

// Update handles PUT /api/issues/:id (admin)
func (h *IssueHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	var req issue.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.issues.UpdateReport(c.Request.Context(), id, &req, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, issue.ErrReportNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue report not found"})
		case errors.Is(err, issue.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue report"})
		}
		return
	}

	c.JSON(http.StatusOK, report)
}

// Delete handles DELETE /api/issues/:id (admin)
func (h *IssueHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	if err := h.issues.DeleteReport(c.Request.Context(), id, actorFrom(c)); err != nil {
		if errors.Is(err, issue.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue report deleted"})
}
