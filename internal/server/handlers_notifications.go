package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *httpHandler) handleListNotifications(c *gin.Context) {
	userID, _ := h.actor(c)
	page, perPage := paginationParams(c)
	unreadOnly := c.Query("unread_only") == "true"
	result, err := h.notifications.ListForUser(c.Request.Context(), userID, page, perPage, unreadOnly)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": result.Items,
		"meta": pageMeta{Total: result.Total, Pages: result.Pages, CurrentPage: result.CurrentPage, PerPage: result.PerPage},
	})
}

func (h *httpHandler) handleUnreadCount(c *gin.Context) {
	userID, _ := h.actor(c)
	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"count": count}})
}

// handleMarkRead answers 404 for another user's notification; the endpoint
// never confirms that a foreign id exists.
func (h *httpHandler) handleMarkRead(c *gin.Context) {
	userID, _ := h.actor(c)
	if err := h.notifications.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}

func (h *httpHandler) handleMarkAllRead(c *gin.Context) {
	userID, _ := h.actor(c)
	if err := h.notifications.MarkAllRead(c.Request.Context(), userID); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all marked read"})
}
