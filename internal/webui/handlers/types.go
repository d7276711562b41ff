package handlers

import (
	"time"

	"collapsible/internal/attachments"
	"collapsible/internal/panel"
)

// APIResponse - standard envelope for every JSON reply
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreatePanelRequest - host inputs for a new panel
type CreatePanelRequest struct {
	ID         string             `json:"id,omitempty"`
	Title      string             `json:"title,omitempty"`
	Open       bool               `json:"open"`
	Chevron    bool               `json:"chevron"`
	Grow       bool               `json:"grow"`
	Disabled   bool               `json:"disabled"`
	Hide       bool               `json:"hide"`
	Body       string             `json:"body,omitempty"`
	Attributes panel.AttributeSet `json:"attributes"`
}

func (r CreatePanelRequest) options() panel.Options {
	return panel.Options{
		ID:         r.ID,
		Title:      r.Title,
		Open:       r.Open,
		Chevron:    r.Chevron,
		Grow:       r.Grow,
		Disabled:   r.Disabled,
		Hide:       r.Hide,
		Body:       r.Body,
		Attributes: r.Attributes,
	}
}

// ToggleResponse - outcome of a header activation
type ToggleResponse struct {
	Changed bool       `json:"changed"`
	View    panel.View `json:"view"`
}

// HealthResponse - liveness payload
type HealthResponse struct {
	Status    string              `json:"status"`
	Version   string              `json:"version"`
	Timestamp time.Time           `json:"timestamp"`
	Uptime    string              `json:"uptime"`
	Panels    int                 `json:"panels"`
	Cache     *CacheStatsResponse `json:"cache,omitempty"`
}

// CacheStatsResponse - probe cache occupancy and lookup counters
type CacheStatsResponse struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

func newCacheStatsResponse(stats attachments.CacheStats) CacheStatsResponse {
	return CacheStatsResponse{Size: stats.Size, Hits: stats.Hits, Misses: stats.Misses}
}

// CacheStats reports cache stats for the health payload; nil when no cache is wired.
func CacheStats(cache ProbeCache) *CacheStatsResponse {
	if cache == nil {
		return nil
	}
	resp := newCacheStatsResponse(cache.Stats())
	return &resp
}
