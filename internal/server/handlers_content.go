package server

import (
	"net/http"
	"time"

	"github.com/moringadesk/backend/internal/blog"
	"github.com/gin-gonic/gin"
)

type faqRequestPayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *httpHandler) handleCreateFAQ(c *gin.Context) {
	var request faqRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID, _ := h.actor(c)
	entry, err := h.faqs.Create(c.Request.Context(), userID, request.Question, request.Answer)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": entry})
}

func (h *httpHandler) handleListFAQs(c *gin.Context) {
	page, perPage := paginationParams(c)
	result, err := h.faqs.List(c.Request.Context(), page, perPage)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": result.Items,
		"meta": pageMeta{Total: result.Total, Pages: result.Pages, CurrentPage: result.CurrentPage, PerPage: result.PerPage},
	})
}

func (h *httpHandler) handleGetFAQ(c *gin.Context) {
	entry, err := h.faqs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (h *httpHandler) handleUpdateFAQ(c *gin.Context) {
	var request faqRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	entry, err := h.faqs.Update(c.Request.Context(), c.Param("id"), request.Question, request.Answer)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (h *httpHandler) handleDeleteFAQ(c *gin.Context) {
	if err := h.faqs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "faq deleted"})
}

type postRequestPayload struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	CoverImage  string     `json:"cover_image"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
}

func (h *httpHandler) handleCreatePost(c *gin.Context) {
	var request postRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID, _ := h.actor(c)
	post, err := h.blog.Create(c.Request.Context(), userID, blog.CreateInput{
		Title:       request.Title,
		Slug:        request.Slug,
		Excerpt:     request.Excerpt,
		Content:     request.Content,
		CoverImage:  request.CoverImage,
		Status:      blog.Status(request.Status),
		PublishedAt: request.PublishedAt,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": post})
}

func (h *httpHandler) handleListPosts(c *gin.Context) {
	page, perPage := paginationParams(c)
	result, err := h.blog.List(c.Request.Context(), page, perPage, blog.ListFilter{
		Search: c.Query("search"),
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

func (h *httpHandler) handleAdminListPosts(c *gin.Context) {
	page, perPage := paginationParams(c)
	result, err := h.blog.List(c.Request.Context(), page, perPage, blog.ListFilter{
		Status:             blog.Status(c.Query("status")),
		Search:             c.Query("search"),
		AuthorID:           c.Query("author_id"),
		IncludeUnpublished: true,
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

func (h *httpHandler) handleGetPost(c *gin.Context) {
	post, err := h.blog.Get(c.Request.Context(), c.Param("identifier"), false)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": post})
}

type postUpdateRequestPayload struct {
	Title       *string    `json:"title"`
	Slug        *string    `json:"slug"`
	Excerpt     *string    `json:"excerpt"`
	Content     *string    `json:"content"`
	CoverImage  *string    `json:"cover_image"`
	Status      *string    `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
}

func (h *httpHandler) handleUpdatePost(c *gin.Context) {
	var request postUpdateRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	input := blog.UpdateInput{
		Title:       request.Title,
		Slug:        request.Slug,
		Excerpt:     request.Excerpt,
		Content:     request.Content,
		CoverImage:  request.CoverImage,
		PublishedAt: request.PublishedAt,
	}
	if request.Status != nil {
		status := blog.Status(*request.Status)
		input.Status = &status
	}
	post, err := h.blog.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": post})
}

func (h *httpHandler) handleDeletePost(c *gin.Context) {
	if err := h.blog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}
