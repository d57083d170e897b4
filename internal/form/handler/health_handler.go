package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/session"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/sse"
)

// HealthHandler 运维探针
type HealthHandler struct {
	db       *gorm.DB
	sessions *session.Manager
	hub      *sse.Hub
	version  string
}

// NewHealthHandler 创建探针处理器
func NewHealthHandler(db *gorm.DB, sessions *session.Manager, hub *sse.Hub, version string) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{db: db, sessions: sessions, hub: hub, version: version}
}

// Live GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready 数据库可用时就绪
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": "database is not configured"})
		return
	}
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"sessions": h.sessions.Count(),
		"streams":  h.hub.Count(),
	})
}

// Version GET /version
func (h *HealthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}
