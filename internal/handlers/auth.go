package handlers

import (
	"net/http"

	"SPX-VAL/internal/models"
	"SPX-VAL/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth   *services.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	SessionID string      `json:"sessionId"`
	User      models.User `json:"user"`
}

// RegisterRequest leaves validation to the user store so that a missing
// field reports the store's message.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	sess, err := h.auth.Login(req.Username, req.Password, c.ClientIP())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header(SessionHeader, sess.ID)
	c.JSON(http.StatusOK, LoginResponse{SessionID: sess.ID, User: sess.User})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.auth.Register(req.Username, req.Password, req.FullName, req.Role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.Logout(currentSession(c).ID)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	sess := currentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"sessionId":     sess.ID,
		"user":          sess.User,
		"bank":          sess.Bank(),
		"valuationType": sess.ValuationType(),
	})
}
