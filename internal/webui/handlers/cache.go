package handlers

import (
	"net/http"

	"collapsible/internal/attachments"
	"collapsible/internal/shared/logging"

	"github.com/gin-gonic/gin"
)

// ProbeCache is the slice of the probe cache the server exposes.
type ProbeCache interface {
	Stats() attachments.CacheStats
	Purge()
}

// CacheHandler - inspect and reset the probe cache
type CacheHandler struct {
	cache  ProbeCache
	logger logging.Logger
}

func NewCacheHandler(cache ProbeCache, logger logging.Logger) *CacheHandler {
	return &CacheHandler{cache: cache, logger: logging.OrNop(logger)}
}

// GetStats - GET /api/cache
func (h *CacheHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: newCacheStatsResponse(h.cache.Stats())})
}

// Purge - POST /api/cache/purge
func (h *CacheHandler) Purge(c *gin.Context) {
	before := h.cache.Stats().Size
	h.cache.Purge()
	h.logger.Info("Purged %d cached probe result(s)", before)
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "probe cache purged",
		Data:    newCacheStatsResponse(h.cache.Stats()),
	})
}
