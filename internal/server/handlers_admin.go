package server

import (
	"net/http"

	"github.com/moringadesk/backend/internal/admin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fileReportRequestPayload struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Reason     string `json:"reason"`
}

func (h *httpHandler) handleFileReport(c *gin.Context) {
	var request fileReportRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID, _ := h.actor(c)
	report, err := h.admin.FileReport(
		c.Request.Context(),
		userID,
		admin.TargetType(request.TargetType),
		request.TargetID,
		request.Reason,
	)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": report})
}

func (h *httpHandler) handleListReports(c *gin.Context) {
	page, perPage := paginationParams(c)
	result, err := h.admin.ListReports(c.Request.Context(), page, perPage, admin.ReportStatus(c.Query("status")))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": result.Items,
		"meta": pageMeta{Total: result.Total, Pages: result.Pages, CurrentPage: result.CurrentPage, PerPage: result.PerPage},
	})
}

type resolveReportRequestPayload struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *httpHandler) handleResolveReport(c *gin.Context) {
	var request resolveReportRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	adminID, _ := h.actor(c)
	account, err := h.users.GetByID(c.Request.Context(), adminID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	report, err := h.admin.ResolveReport(
		c.Request.Context(),
		c.Param("id"),
		admin.ReportStatus(request.Status),
		adminID,
		account.Name,
		request.Reason,
	)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (h *httpHandler) handleListAuditLog(c *gin.Context) {
	page, perPage := paginationParams(c)
	result, err := h.admin.ListAuditLog(c.Request.Context(), page, perPage)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": result.Items,
		"meta": pageMeta{Total: result.Total, Pages: result.Pages, CurrentPage: result.CurrentPage, PerPage: result.PerPage},
	})
}

func (h *httpHandler) handleDashboard(c *gin.Context) {
	dashboard, err := h.admin.GetDashboard(c.Request.Context())
	if err != nil {
		h.logger.Error("dashboard aggregation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dashboard})
}
