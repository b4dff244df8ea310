package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagevault/pagevault-backend/internal/platform/apierr"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	handlerLog := log.With("handler", "AuthHandler")
	return &AuthHandler{log: handlerLog, authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	tokens, err := h.authService.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, tokens)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	tokens, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, tokens)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	token, ok := refreshTokenFrom(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("refresh_token required"))
		return
	}
	tokens, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := refreshTokenFrom(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("refresh_token required"))
		return
	}
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"logged_out": true})
}

func refreshTokenFrom(c *gin.Context) (string, bool) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		return "", false
	}
	return req.RefreshToken, true
}
