package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health 健康检查
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "animagen-backend",
		"timestamp": time.Now().Unix(),
	})
}

// ServiceInfo 根路径的服务信息
func ServiceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "AniMagen Backend",
		"version": "1.0.0",
		"health":  "/health",
		"endpoints": gin.H{
			"POST /render":   "Submit animation code and receive the rendered video",
			"POST /generate": "Generate a narrated video from a text prompt",
		},
	})
}
