package server

import (
	"net/http"

	"github.com/moringadesk/backend/internal/questions"
	"github.com/gin-gonic/gin"
)

type questionRequestPayload struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func (h *httpHandler) handleCreateQuestion(c *gin.Context) {
	var request questionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID, _ := h.actor(c)
	question, err := h.questions.Create(c.Request.Context(), userID, questions.CreateInput{
		Title:    request.Title,
		Body:     request.Body,
		Category: request.Category,
		Tags:     request.Tags,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": question})
}

func (h *httpHandler) handleListQuestions(c *gin.Context) {
	page, perPage := paginationParams(c)
	result, err := h.questions.List(c.Request.Context(), page, perPage, c.Query("category"), c.Query("search"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": result.Items,
		"meta": pageMeta{Total: result.Total, Pages: result.Pages, CurrentPage: result.CurrentPage, PerPage: result.PerPage},
	})
}

func (h *httpHandler) handleGetQuestion(c *gin.Context) {
	question, err := h.questions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": question})
}

func (h *httpHandler) handleUpdateQuestion(c *gin.Context) {
	var request questionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID, isAdmin := h.actor(c)
	question, err := h.questions.Update(c.Request.Context(), c.Param("id"), userID, isAdmin, questions.UpdateInput{
		Title:    request.Title,
		Body:     request.Body,
		Category: request.Category,
		Tags:     request.Tags,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": question})
}

func (h *httpHandler) handleDeleteQuestion(c *gin.Context) {
	userID, isAdmin := h.actor(c)
	if err := h.questions.Delete(c.Request.Context(), c.Param("id"), userID, isAdmin); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "question deleted"})
}

func (h *httpHandler) handleFollowQuestion(c *gin.Context) {
	userID, _ := h.actor(c)
	if err := h.questions.FollowQuestion(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "following"})
}

func (h *httpHandler) handleUnfollowQuestion(c *gin.Context) {
	userID, _ := h.actor(c)
	if err := h.questions.UnfollowQuestion(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

type linkRelatedRequestPayload struct {
	RelatedQuestionID string `json:"related_question_id"`
}

func (h *httpHandler) handleLinkRelated(c *gin.Context) {
	var request linkRelatedRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.RelatedQuestionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.questions.LinkRelated(c.Request.Context(), c.Param("id"), request.RelatedQuestionID); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "linked"})
}

func (h *httpHandler) handleListRelated(c *gin.Context) {
	related, err := h.questions.ListRelated(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": related})
}

func (h *httpHandler) handleMyQuestions(c *gin.Context) {
	userID, _ := h.actor(c)
	items, err := h.questions.ListByAuthor(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *httpHandler) handleListTags(c *gin.Context) {
	tags, err := h.questions.ListTags(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tags})
}
