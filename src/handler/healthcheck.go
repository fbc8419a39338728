package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleHealthCheck godoc
// @Summary Health check endpoint
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HandleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
