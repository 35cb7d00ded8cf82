package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/service/auth"
)

// AuthHandler adapts the auth service to HTTP.
type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	PIN      string `json:"pin" binding:"required"`
}

// Login authenticates and returns the new session, token included.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := h.svc.Login(req.Username, req.PIN)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type registerRequest struct {
	Username string      `json:"username" binding:"required"`
	PIN      string      `json:"pin" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
	Phone    string      `json:"phone"`
	Email    string      `json:"email"`
}

// Register creates a new staff account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.svc.Register(auth.RegisterInput{
		Username: req.Username,
		PIN:      req.PIN,
		Role:     req.Role,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

// Logout clears the active session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Session returns the active session, or 404 when logged out.
func (h *AuthHandler) Session(c *gin.Context) {
	sess, err := h.svc.CurrentSession()
	if err != nil {
		respondError(c, err)
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

type recoveryRequest struct {
	Contact string `json:"contact" binding:"required"`
}

// RecoveryRequest starts the PIN recovery flow for a contact.
func (h *AuthHandler) RecoveryRequest(c *gin.Context) {
	var req recoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.RequestRecovery(c.Request.Context(), req.Contact); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "recovery code sent"})
}

type recoveryVerifyRequest struct {
	Contact string `json:"contact" binding:"required"`
	Code    string `json:"code" binding:"required"`
	NewPIN  string `json:"newPin" binding:"required"`
}

// RecoveryVerify completes the recovery flow and resets the PIN.
func (h *AuthHandler) RecoveryVerify(c *gin.Context) {
	var req recoveryVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.VerifyRecovery(req.Contact, req.Code, req.NewPIN); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "PIN reset, please login"})
}
