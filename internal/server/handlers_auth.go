package server

import (
	"net/http"
	"strings"

	"github.com/moringadesk/backend/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerRequestPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequestPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.users.Register(c.Request.Context(), users.RegisterInput{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(account.ID, string(account.Role))
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  account.Public(),
		"token": authResponsePayload{AccessToken: token, ExpiresIn: expiresIn, TokenType: "Bearer"},
	})
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.users.Authenticate(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(account.ID, string(account.Role))
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  account.Public(),
		"token": authResponsePayload{AccessToken: token, ExpiresIn: expiresIn, TokenType: "Bearer"},
	})
}

func (h *httpHandler) handleMe(c *gin.Context) {
	userID, _ := h.actor(c)
	account, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": account.Public()})
}

type updateProfileRequestPayload struct {
	Name string `json:"name"`
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	var request updateProfileRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID, _ := h.actor(c)
	account, err := h.users.UpdateProfile(c.Request.Context(), userID, request.Name)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": account.Public()})
}

type passwordResetRequestPayload struct {
	Email string `json:"email"`
}

// handlePasswordResetRequest always answers 202. Whether the email exists
// is never revealed to the caller.
func (h *httpHandler) handlePasswordResetRequest(c *gin.Context) {
	var request passwordResetRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.users.RequestPasswordReset(c.Request.Context(), request.Email); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "reset requested"})
}

type passwordResetConfirmPayload struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *httpHandler) handlePasswordResetConfirm(c *gin.Context) {
	var request passwordResetConfirmPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.users.ResetPassword(c.Request.Context(), request.Token, request.NewPassword); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
