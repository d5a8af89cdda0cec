package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dex-scalp-assistant/internal/auth"
)

// handleRegister creates a new user account and returns a token
func (s *Server) handleRegister(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tokens, err := s.authService.Register(c.Request.Context(), req)
	if err != nil {
		var authErr auth.AuthError
		if errors.As(err, &authErr) {
			status := http.StatusBadRequest
			if authErr.Code == auth.ErrEmailTaken.Code {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": true, "code": authErr.Code, "message": authErr.Message})
			return
		}
		s.logger.Error().Err(err).Msg("Registration failed")
		errorResponse(c, http.StatusInternalServerError, "registration failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": tokens})
}

// handleLogin authenticates a user and returns a token
func (s *Server) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tokens, err := s.authService.Login(c.Request.Context(), req)
	if err != nil {
		var authErr auth.AuthError
		if errors.As(err, &authErr) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": true, "code": authErr.Code, "message": authErr.Message})
			return
		}
		s.logger.Error().Err(err).Msg("Login failed")
		errorResponse(c, http.StatusInternalServerError, "login failed")
		return
	}

	successResponse(c, tokens)
}
