package output

import (
	"collapsible/internal/panel"
	jsonx "collapsible/internal/shared/json"
)

// JSONRenderer emits indented JSON documents.
type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

func (r *JSONRenderer) Target() OutputTarget {
	return TargetJSON
}

func (r *JSONRenderer) RenderPanel(view panel.View) string {
	return marshalIndented(view)
}

func (r *JSONRenderer) RenderProbeReports(reports []ProbeReport) string {
	if reports == nil {
		reports = []ProbeReport{}
	}
	return marshalIndented(reports)
}

func marshalIndented(v any) string {
	data, err := jsonx.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data) + "\n"
}
