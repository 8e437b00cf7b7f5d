package ops

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"funnel/internal/logger"
	"funnel/internal/window"
)

// Handler exposes read-only pipeline state for operators: the current
// watermark and the set of tracked windows.
type Handler struct {
	windows *window.Manager
	logger  logger.Logger
}

func NewHandler(windows *window.Manager, log logger.Logger) *Handler {
	return &Handler{
		windows: windows,
		logger:  log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine, middleware ...gin.HandlerFunc) {
	v1 := router.Group("/api/v1", middleware...)
	{
		v1.GET("/watermark", h.GetWatermark)
		v1.GET("/windows", h.ListWindows)
	}
}

func (h *Handler) GetWatermark(c *gin.Context) {
	wm := h.windows.Watermark()
	c.JSON(http.StatusOK, gin.H{
		"watermark":   wm,
		"lag_seconds": time.Since(wm).Seconds(),
	})
}

func (h *Handler) ListWindows(c *gin.Context) {
	infos := h.windows.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(infos),
		"windows": infos,
	})
}
