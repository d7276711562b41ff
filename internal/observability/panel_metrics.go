package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PanelMetrics tracks resolution sequences and dispatch decisions. All methods
// are safe on a nil receiver.
type PanelMetrics struct {
	sequencesStarted    prometheus.Counter
	sequencesSuperseded prometheus.Counter
	presentations       *prometheus.CounterVec
	panelsActive        prometheus.Gauge
}

// NewPanelMetrics registers the panel collectors on reg.
func NewPanelMetrics(reg prometheus.Registerer) *PanelMetrics {
	m := &PanelMetrics{
		sequencesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collapsible_resolution_sequences_started_total",
			Help: "Attachment resolution sequences started.",
		}),
		sequencesSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collapsible_resolution_sequences_superseded_total",
			Help: "Resolution sequences abandoned because the file list changed.",
		}),
		presentations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collapsible_presentations_total",
			Help: "Presentation branches chosen for attachments.",
		}, []string{"branch"}),
		panelsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "collapsible_panels_active",
			Help: "Panels currently registered with the preview server.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.sequencesStarted, m.sequencesSuperseded, m.presentations, m.panelsActive)
	}
	return m
}

func (m *PanelMetrics) SequenceStarted() {
	if m == nil {
		return
	}
	m.sequencesStarted.Inc()
}

func (m *PanelMetrics) SequenceSuperseded() {
	if m == nil {
		return
	}
	m.sequencesSuperseded.Inc()
}

func (m *PanelMetrics) Presented(branch string) {
	if m == nil {
		return
	}
	m.presentations.WithLabelValues(branch).Inc()
}

func (m *PanelMetrics) PanelAdded() {
	if m == nil {
		return
	}
	m.panelsActive.Inc()
}

func (m *PanelMetrics) PanelRemoved() {
	if m == nil {
		return
	}
	m.panelsActive.Dec()
}
