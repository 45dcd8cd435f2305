// Package handler holds the gin HTTP handlers of the API surface.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YTKia/stationnement/internal/auth"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	svc *auth.Service
}

// NewAuthHandler returns an AuthHandler over the auth service.
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	err := h.svc.Register(req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "password must be at least 8 characters long and contain a combination of uppercase letters, lowercase letters, numbers, and symbols",
		})
	case errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "an account with that username already exists"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
	default:
		c.JSON(http.StatusCreated, gin.H{"message": "account created successfully"})
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.svc.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log in"})
	default:
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
