package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/moringadesk/backend/internal/admin"
	"github.com/moringadesk/backend/internal/auth"
	"github.com/moringadesk/backend/internal/blog"
	"github.com/moringadesk/backend/internal/faqs"
	"github.com/moringadesk/backend/internal/feedback"
	"github.com/moringadesk/backend/internal/notifications"
	"github.com/moringadesk/backend/internal/questions"
	"github.com/moringadesk/backend/internal/solutions"
	"github.com/moringadesk/backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userIDContextKey = "moringadesk_user_id"
	roleContextKey   = "moringadesk_user_role"
)

var (
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingUsersService  = errors.New("users service dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates the bearer tokens carried by API
// requests.
type TokenManager interface {
	IssueToken(userID, role string) (string, int64, error)
	ValidateToken(tokenString string) (auth.Identity, error)
}

// Dependencies wires the services behind the HTTP surface. Realtime is the
// websocket upgrade handler; it authenticates on its own because browsers
// cannot attach headers to a handshake.
type Dependencies struct {
	Tokens        TokenManager
	Users         *users.Service
	Questions     *questions.Service
	Solutions     *solutions.Service
	Notifications *notifications.Service
	FAQs          *faqs.Service
	Blog          *blog.Service
	Admin         *admin.Service
	Feedback      *feedback.Service
	Realtime      http.Handler
	CORSOrigins   []string
	Logger        *zap.Logger
}

// NewHTTPHandler assembles the full route table.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Tokens == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:        deps.Tokens,
		users:         deps.Users,
		questions:     deps.Questions,
		solutions:     deps.Solutions,
		notifications: deps.Notifications,
		faqs:          deps.FAQs,
		blog:          deps.Blog,
		admin:         deps.Admin,
		feedback:      deps.Feedback,
		logger:        logger,
	}

	router.GET("/healthz", handler.handleHealth)

	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/login", handler.handleLogin)
	router.POST("/auth/password-reset/request", handler.handlePasswordResetRequest)
	router.POST("/auth/password-reset/confirm", handler.handlePasswordResetConfirm)

	router.GET("/questions", handler.handleListQuestions)
	router.GET("/questions/:id", handler.handleGetQuestion)
	router.GET("/questions/:id/solutions", handler.handleListSolutions)
	router.GET("/questions/:id/related", handler.handleListRelated)
	router.GET("/tags", handler.handleListTags)
	router.GET("/faqs", handler.handleListFAQs)
	router.GET("/faqs/:id", handler.handleGetFAQ)
	router.GET("/blog", handler.handleListPosts)
	router.GET("/blog/:identifier", handler.handleGetPost)
	router.GET("/stats", handler.handlePublicStats)
	router.POST("/feedback", handler.handleSubmitFeedback)
	router.POST("/subscribe", handler.handleSubscribe)

	if deps.Realtime != nil {
		router.GET("/ws", gin.WrapH(deps.Realtime))
	}

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	{
		protected.GET("/auth/me", handler.handleMe)
		protected.PUT("/auth/me", handler.handleUpdateProfile)
		protected.GET("/auth/me/questions", handler.handleMyQuestions)

		protected.POST("/questions", handler.handleCreateQuestion)
		protected.PUT("/questions/:id", handler.handleUpdateQuestion)
		protected.DELETE("/questions/:id", handler.handleDeleteQuestion)
		protected.POST("/questions/:id/follow", handler.handleFollowQuestion)
		protected.DELETE("/questions/:id/follow", handler.handleUnfollowQuestion)
		protected.POST("/questions/:id/related", handler.handleLinkRelated)
		protected.POST("/questions/:id/solutions", handler.handleCreateSolution)

		protected.PUT("/solutions/:id", handler.handleUpdateSolution)
		protected.DELETE("/solutions/:id", handler.handleDeleteSolution)
		protected.POST("/solutions/:id/accept", handler.handleAcceptSolution)
		protected.GET("/solutions/:id/votes", handler.handleListVotes)
		protected.POST("/solutions/:id/votes", handler.handleCastVote)
		protected.DELETE("/solutions/:id/votes", handler.handleRemoveVote)

		protected.GET("/notifications", handler.handleListNotifications)
		protected.GET("/notifications/unread-count", handler.handleUnreadCount)
		protected.POST("/notifications/:id/read", handler.handleMarkRead)
		protected.POST("/notifications/read-all", handler.handleMarkAllRead)

		protected.POST("/reports", handler.handleFileReport)
	}

	adminGroup := protected.Group("/")
	adminGroup.Use(handler.requireAdmin)
	{
		adminGroup.GET("/admin/dashboard", handler.handleDashboard)
		adminGroup.GET("/admin/reports", handler.handleListReports)
		adminGroup.POST("/admin/reports/:id/resolve", handler.handleResolveReport)
		adminGroup.GET("/admin/audit-logs", handler.handleListAuditLog)
		adminGroup.GET("/admin/blog", handler.handleAdminListPosts)
		adminGroup.GET("/admin/feedback", handler.handleListFeedback)
		adminGroup.PUT("/admin/feedback/:id", handler.handleUpdateFeedback)

		adminGroup.POST("/faqs", handler.handleCreateFAQ)
		adminGroup.PUT("/faqs/:id", handler.handleUpdateFAQ)
		adminGroup.DELETE("/faqs/:id", handler.handleDeleteFAQ)

		adminGroup.POST("/blog", handler.handleCreatePost)
		adminGroup.PUT("/blog/:id", handler.handleUpdatePost)
		adminGroup.DELETE("/blog/:id", handler.handleDeletePost)
	}

	return router, nil
}

type httpHandler struct {
	tokens        TokenManager
	users         *users.Service
	questions     *questions.Service
	solutions     *solutions.Service
	notifications *notifications.Service
	faqs          *faqs.Service
	blog          *blog.Service
	admin         *admin.Service
	feedback      *feedback.Service
	logger        *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	identity, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, identity.UserID)
	c.Set(roleContextKey, identity.Role)
	c.Next()
}

func (h *httpHandler) requireAdmin(c *gin.Context) {
	if c.GetString(roleContextKey) != string(users.RoleAdmin) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.Next()
}

func (h *httpHandler) actor(c *gin.Context) (userID string, isAdmin bool) {
	return c.GetString(userIDContextKey), c.GetString(roleContextKey) == string(users.RoleAdmin)
}

// writeServiceError maps domain sentinels onto HTTP statuses. Anything
// unrecognized logs as a server error and hides the detail from the client.
func (h *httpHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrInvalidInput),
		errors.Is(err, questions.ErrInvalidInput),
		errors.Is(err, questions.ErrSelfLink),
		errors.Is(err, solutions.ErrInvalidInput),
		errors.Is(err, solutions.ErrInvalidVote),
		errors.Is(err, faqs.ErrInvalidInput),
		errors.Is(err, blog.ErrInvalidInput),
		errors.Is(err, admin.ErrInvalidInput),
		errors.Is(err, feedback.ErrInvalidInput),
		errors.Is(err, users.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, questions.ErrForbidden), errors.Is(err, solutions.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, users.ErrNotFound),
		errors.Is(err, questions.ErrNotFound),
		errors.Is(err, solutions.ErrNotFound),
		errors.Is(err, notifications.ErrNotFound),
		errors.Is(err, faqs.ErrNotFound),
		errors.Is(err, blog.ErrNotFound),
		errors.Is(err, admin.ErrNotFound),
		errors.Is(err, feedback.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, users.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

type pageMeta struct {
	Total       int64 `json:"total"`
	Pages       int64 `json:"pages"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
}

func paginationParams(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	return page, perPage
}
