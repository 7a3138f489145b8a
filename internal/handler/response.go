package handler

import (
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error" example:"store unavailable"`
}

// Error writes the JSON error body shared by every API route.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{Error: message})
}
