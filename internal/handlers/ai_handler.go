package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server missing Gemini API Key"})
		return
	}

	response, err := h.assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		h.fail(c, "AskAI", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": response})
}
