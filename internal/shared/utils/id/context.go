package id

import "context"

type contextKey string

const panelKey contextKey = "collapsible_panel_id"

// WithPanelID stores the owning panel's collapsible id on the context so probe
// logs and spans can be correlated back to a panel.
func WithPanelID(ctx context.Context, panelID string) context.Context {
	if panelID == "" {
		return ctx
	}
	return context.WithValue(ctx, panelKey, panelID)
}

// PanelIDFromContext returns the panel id stored by WithPanelID, if any.
func PanelIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(panelKey).(string); ok {
		return value
	}
	return ""
}
