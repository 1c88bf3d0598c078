package handlers

import (
	"net/http"

	"go-pos-billing/internal/middleware"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	session, err := h.auth.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.fail(c, "Login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      session.Token,
		"role":       session.Role,
		"email":      session.Email,
		"expires_at": session.ExpiresAt,
	})
}

// Logout revokes the bearer token. The route sits behind AuthMiddleware.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context(), middleware.CurrentSession(c)); err != nil {
		h.fail(c, "Logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Register is only routed when ALLOW_REGISTRATION is on. Accounts are
// cashiers unless role is "admin".
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	user, err := h.auth.Register(c.Request.Context(), input.Email, input.Password, input.Role)
	if err != nil {
		h.fail(c, "Register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "user": user})
}
