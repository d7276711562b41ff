package panel

import (
	"collapsible/internal/attachments"
	"collapsible/internal/disclosure"
	jsonx "collapsible/internal/shared/json"
)

// View is an immutable rendering of a panel. Content fields are only filled
// while the panel is open and not hidden.
type View struct {
	ID            string `json:"id"`
	CollapsibleID string `json:"collapsible_id"`
	Kind          string `json:"kind,omitempty"`
	Title         string `json:"title,omitempty"`
	Label         string `json:"label"`
	Open          bool   `json:"open"`
	Disabled      bool   `json:"disabled"`
	Chevron       bool   `json:"chevron"`
	Grow          bool   `json:"grow"`
	Hide          bool   `json:"hide"`
	Complete      bool   `json:"complete"`
	Body          string `json:"body,omitempty"`

	Arguments  string                     `json:"arguments,omitempty"`
	Result     string                     `json:"result,omitempty"`
	Items      []attachments.Presentation `json:"items,omitempty"`
	Pending    int                        `json:"pending"`
	Resolved   bool                       `json:"resolved"`
	Generation uint64                     `json:"generation"`
	// Revision increases with every delivered view.
	Revision uint64 `json:"revision"`
}

// ContentVisible reports whether the content slot is shown.
func (v View) ContentVisible() bool {
	return v.Open && !v.Hide
}

// View renders the current state.
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

func (p *Panel) viewLocked() View {
	state := p.controller.State()
	attrs := p.attrs

	view := View{
		ID:            p.id,
		CollapsibleID: state.CollapsibleID,
		Kind:          attrs.Kind,
		Title:         p.title,
		Label:         disclosure.Label(attrs.content(), p.title, p.translator, p.humanizer),
		Open:          state.Open,
		Disabled:      state.Disabled,
		Chevron:       p.chevron,
		Grow:          p.grow,
		Hide:          p.hide,
		Complete:      attrs.Complete(),
		Body:          p.body,
		Pending:       p.resolution.LoadingCount(),
		Resolved:      p.resolution.Done,
		Generation:    p.resolution.Generation,
		Revision:      p.revision,
	}
	if !view.ContentVisible() {
		return view
	}

	if attrs.Kind == disclosure.KindToolCalls {
		if view.Complete {
			view.Arguments = jsonx.FormatDepth(attrs.Arguments, p.maxDepth)
			view.Result = jsonx.FormatDepth(attrs.Result, p.maxDepth)
		} else {
			view.Arguments = jsonx.FormatLenient(attrs.Arguments)
		}
	}

	for _, item := range p.dispatcher.DispatchAll(p.resolution) {
		if item.Branch == attachments.BranchNone {
			continue
		}
		view.Items = append(view.Items, item)
	}
	return view
}
