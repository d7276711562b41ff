package output

import (
	"time"

	"collapsible/internal/attachments"
	"collapsible/internal/panel"
)

// OutputTarget represents different output destinations
type OutputTarget string

const (
	TargetCLI  OutputTarget = "cli"  // Terminal display (styled, markdown rendered)
	TargetJSON OutputTarget = "json" // Machine consumption (views as JSON documents)
)

// ProbeReport is the outcome of resolving one reference from the command line.
type ProbeReport struct {
	Reference string             `json:"reference"`
	URL       string             `json:"url"`
	Kind      attachments.Kind   `json:"kind"`
	MimeType  string             `json:"mime_type"`
	Branch    attachments.Branch `json:"branch"`
	Latency   time.Duration      `json:"latency_ns"`
	Error     string             `json:"error,omitempty"`
}

// Renderer defines the interface for rendering panels
type Renderer interface {
	// Target returns the output target this renderer is for
	Target() OutputTarget

	// RenderPanel renders a panel view, header first
	RenderPanel(view panel.View) string

	// RenderProbeReports renders the results of a probe run
	RenderProbeReports(reports []ProbeReport) string
}

// OutputManager manages different renderers for different targets
type OutputManager struct {
	renderers map[OutputTarget]Renderer
}

// NewOutputManager creates a new output manager
func NewOutputManager() *OutputManager {
	return &OutputManager{
		renderers: make(map[OutputTarget]Renderer),
	}
}

// RegisterRenderer registers a renderer for a target
func (m *OutputManager) RegisterRenderer(renderer Renderer) {
	m.renderers[renderer.Target()] = renderer
}

// GetRenderer gets a renderer for a target
func (m *OutputManager) GetRenderer(target OutputTarget) Renderer {
	return m.renderers[target]
}

// RenderFor renders content for a specific target
func (m *OutputManager) RenderFor(target OutputTarget, renderFunc func(Renderer) string) string {
	renderer := m.GetRenderer(target)
	if renderer == nil {
		return ""
	}
	return renderFunc(renderer)
}
