package server

import (
	"net/http"
	"strings"

	"github.com/moringadesk/backend/internal/feedback"
	"github.com/gin-gonic/gin"
)

func (h *httpHandler) handlePublicStats(c *gin.Context) {
	stats, err := h.admin.GetPublicStats(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

type feedbackRequestPayload struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
}

// optionalActor resolves a bearer token when one is attached. Feedback
// accepts anonymous submissions, so an absent or invalid token is not an
// error here.
func (h *httpHandler) optionalActor(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return ""
	}
	identity, err := h.tokens.ValidateToken(token)
	if err != nil {
		return ""
	}
	return identity.UserID
}

func (h *httpHandler) handleSubmitFeedback(c *gin.Context) {
	var request feedbackRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	entry, err := h.feedback.Create(c.Request.Context(), h.optionalActor(c), feedback.CreateInput{
		Type:         feedback.EntryType(request.Type),
		Title:        request.Title,
		Description:  request.Description,
		Priority:     feedback.Priority(request.Priority),
		ContactName:  request.ContactName,
		ContactEmail: request.ContactEmail,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": entry})
}

type subscribeRequestPayload struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

func (h *httpHandler) handleSubscribe(c *gin.Context) {
	var request subscribeRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	_, created, err := h.feedback.Subscribe(c.Request.Context(), request.Email, request.Source)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "already subscribed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "subscribed"})
}

func (h *httpHandler) handleListFeedback(c *gin.Context) {
	page, perPage := paginationParams(c)
	result, err := h.feedback.List(c.Request.Context(), page, perPage, feedback.ListFilter{
		Type:     feedback.EntryType(c.Query("type")),
		Status:   feedback.Status(c.Query("status")),
		Priority: feedback.Priority(c.Query("priority")),
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": result.Items,
		"meta": pageMeta{Total: result.Total, Pages: result.Pages, CurrentPage: result.CurrentPage, PerPage: result.PerPage},
	})
}

type feedbackUpdateRequestPayload struct {
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
}

func (h *httpHandler) handleUpdateFeedback(c *gin.Context) {
	var request feedbackUpdateRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	var input feedback.UpdateInput
	if request.Status != nil {
		status := feedback.Status(*request.Status)
		input.Status = &status
	}
	if request.Priority != nil {
		priority := feedback.Priority(*request.Priority)
		input.Priority = &priority
	}
	entry, err := h.feedback.UpdateTriage(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entry})
}
