package server

import (
	"net/http"

	"github.com/moringadesk/backend/internal/solutions"
	"github.com/gin-gonic/gin"
)

type solutionRequestPayload struct {
	Content string `json:"content"`
}

func (h *httpHandler) handleCreateSolution(c *gin.Context) {
	var request solutionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID, _ := h.actor(c)
	solution, err := h.solutions.Create(c.Request.Context(), c.Param("id"), userID, request.Content)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": solution})
}

func (h *httpHandler) handleListSolutions(c *gin.Context) {
	page, perPage := paginationParams(c)
	result, err := h.solutions.ListByQuestion(c.Request.Context(), c.Param("id"), page, perPage)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": result.Items,
		"meta": pageMeta{Total: result.Total, Pages: result.Pages, CurrentPage: result.CurrentPage, PerPage: result.PerPage},
	})
}

func (h *httpHandler) handleUpdateSolution(c *gin.Context) {
	var request solutionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID, isAdmin := h.actor(c)
	solution, err := h.solutions.Update(c.Request.Context(), c.Param("id"), userID, isAdmin, request.Content)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": solution})
}

func (h *httpHandler) handleDeleteSolution(c *gin.Context) {
	userID, isAdmin := h.actor(c)
	if err := h.solutions.Delete(c.Request.Context(), c.Param("id"), userID, isAdmin); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "solution deleted"})
}

func (h *httpHandler) handleAcceptSolution(c *gin.Context) {
	userID, _ := h.actor(c)
	solution, err := h.solutions.Accept(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": solution})
}

type castVoteRequestPayload struct {
	Type string `json:"type"`
}

func (h *httpHandler) handleCastVote(c *gin.Context) {
	var request castVoteRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID, _ := h.actor(c)
	result, err := h.solutions.CastVote(c.Request.Context(), c.Param("id"), userID, solutions.VoteType(request.Type))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *httpHandler) handleRemoveVote(c *gin.Context) {
	userID, _ := h.actor(c)
	if err := h.solutions.RemoveVote(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "vote removed"})
}

func (h *httpHandler) handleListVotes(c *gin.Context) {
	votes, err := h.solutions.ListVotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": votes})
}
