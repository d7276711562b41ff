package handlers

import (
	"fmt"
	"net/http"

	"collapsible/internal/panel"
	"collapsible/internal/shared/logging"

	"github.com/gin-gonic/gin"
)

// PanelHandler - REST surface over the panel registry
type PanelHandler struct {
	registry *PanelRegistry
	logger   logging.Logger
}

func NewPanelHandler(registry *PanelRegistry, logger logging.Logger) *PanelHandler {
	return &PanelHandler{registry: registry, logger: logging.OrNop(logger)}
}

// CreatePanel - POST /api/panels
func (h *PanelHandler) CreatePanel(c *gin.Context) {
	var req CreatePanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	p, err := h.registry.Create(req.options())
	if err != nil {
		c.JSON(http.StatusConflict, APIResponse{Success: false, Error: err.Error()})
		return
	}
	h.logger.Info("Created panel %s (kind=%q)", p.ID(), req.Attributes.Kind)

	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: p.View()})
}

// ListPanels - GET /api/panels
func (h *PanelHandler) ListPanels(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: h.registry.IDs()})
}

// GetPanel - GET /api/panels/:id
func (h *PanelHandler) GetPanel(c *gin.Context) {
	p, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: p.View()})
}

// UpdateAttributes - PUT /api/panels/:id/attributes
func (h *PanelHandler) UpdateAttributes(c *gin.Context) {
	p, ok := h.lookup(c)
	if !ok {
		return
	}
	var attrs panel.AttributeSet
	if err := c.ShouldBindJSON(&attrs); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("invalid attributes: %v", err),
		})
		return
	}
	p.Update(attrs)
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: p.View()})
}

// TogglePanel - POST /api/panels/:id/toggle
func (h *PanelHandler) TogglePanel(c *gin.Context) {
	p, ok := h.lookup(c)
	if !ok {
		return
	}
	changed := p.Toggle()
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    ToggleResponse{Changed: changed, View: p.View()},
	})
}

// DeletePanel - DELETE /api/panels/:id
func (h *PanelHandler) DeletePanel(c *gin.Context) {
	id := c.Param("id")
	if !h.registry.Remove(id) {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: fmt.Sprintf("panel %s not found", id)})
		return
	}
	h.logger.Info("Removed panel %s", id)
	c.JSON(http.StatusOK, APIResponse{Success: true})
}

func (h *PanelHandler) lookup(c *gin.Context) (*panel.Panel, bool) {
	id := c.Param("id")
	p, ok := h.registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: fmt.Sprintf("panel %s not found", id)})
		return nil, false
	}
	return p, true
}
