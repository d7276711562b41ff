package panel

import (
	"context"
	"slices"
	"sync"

	"collapsible/internal/attachments"
	"collapsible/internal/disclosure"
	"collapsible/internal/observability"
	jsonx "collapsible/internal/shared/json"
	"collapsible/internal/shared/logging"
	"collapsible/internal/shared/utils/id"

	"go.opentelemetry.io/otel/trace"
)

// Options are the host inputs of a panel. Open seeds the disclosure state once.
type Options struct {
	Open       bool
	ID         string
	Title      string
	Attributes AttributeSet
	Chevron    bool
	Grow       bool
	Disabled   bool
	Hide       bool
	OnChange   func(bool)
	// Body is the default slot, typically markdown.
	Body string
}

// ToggleRecorder receives disclosure transitions.
type ToggleRecorder interface {
	RecordToggle(ctx context.Context, open bool)
}

// Deps are the collaborators shared by every panel of a process.
type Deps struct {
	Prober       attachments.Prober
	BaseURL      string
	Translator   disclosure.Translator
	Humanizer    disclosure.Humanizer
	Logger       logging.Logger
	Recorder     ToggleRecorder
	PanelMetrics *observability.PanelMetrics
	Tracer       trace.Tracer
	MaxDepth     int
	PreviewLimit int
}

// Panel composes the attachment pipeline with the disclosure controller.
// Callers push attribute snapshots with Update; subscribers receive a fresh
// View after every change. Views are delivered one at a time by whichever
// caller is publishing, each rebuilt from the state at delivery time, so the
// last view a subscriber sees is always current. Subscribers run
// synchronously and must not call Update.
type Panel struct {
	ctx        context.Context
	id         string
	controller *disclosure.Controller
	sequencer  *attachments.Sequencer
	dispatcher attachments.Dispatcher
	translator disclosure.Translator
	humanizer  disclosure.Humanizer
	logger     logging.Logger
	recorder   ToggleRecorder
	metrics    *observability.PanelMetrics
	maxDepth   int

	updateMu sync.Mutex

	mu          sync.Mutex
	title       string
	body        string
	chevron     bool
	grow        bool
	hide        bool
	attrs       AttributeSet
	files       []string
	started     bool
	resolution  attachments.ResolutionState
	subscribers map[int]func(View)
	nextSub     int
	closed      bool
	revision    uint64
	dirty       bool
	delivering  bool
}

// New creates a panel and starts resolving its initial attributes. ctx bounds
// the panel's lifetime: cancelling it abandons any resolution in flight.
func New(ctx context.Context, opts Options, deps Deps) *Panel {
	panelID := opts.ID
	if panelID == "" {
		panelID = id.NewPanelID()
	}
	translator := deps.Translator
	if translator == nil {
		translator = disclosure.English()
	}
	humanizer := deps.Humanizer
	if humanizer == nil {
		humanizer = disclosure.EnglishHumanizer{}
	}
	maxDepth := deps.MaxDepth
	if maxDepth <= 0 {
		maxDepth = jsonx.DefaultMaxDepth
	}

	logger := logging.WithScope(deps.Logger, panelID)

	p := &Panel{
		ctx:         id.WithPanelID(ctx, panelID),
		id:          panelID,
		translator:  translator,
		humanizer:   humanizer,
		logger:      logger,
		recorder:    deps.Recorder,
		metrics:     deps.PanelMetrics,
		maxDepth:    maxDepth,
		title:       opts.Title,
		body:        opts.Body,
		chevron:     opts.Chevron,
		grow:        opts.Grow,
		hide:        opts.Hide,
		subscribers: make(map[int]func(View)),
		dispatcher: attachments.Dispatcher{
			BaseURL:      deps.BaseURL,
			PreviewLimit: deps.PreviewLimit,
			Labeler:      translator,
		},
	}

	p.controller = disclosure.NewController(opts.Open,
		disclosure.WithDisabled(opts.Disabled),
		disclosure.WithOnChange(opts.OnChange),
		disclosure.WithOnChange(p.handleToggle),
	)

	prober := deps.Prober
	if prober == nil {
		prober = attachments.NewHTTPProber(deps.BaseURL, attachments.WithProbeLogger(logging.WithScope(logger, "probe")))
	}
	p.sequencer = attachments.NewSequencer(prober,
		attachments.WithSequencerLogger(logging.WithScope(logger, "sequencer")),
		attachments.WithPanelMetrics(deps.PanelMetrics),
		attachments.WithSequencerTracer(deps.Tracer),
		attachments.WithUpdateFunc(p.handleResolution),
	)

	p.metrics.PanelAdded()
	p.Update(opts.Attributes)
	return p
}

func (p *Panel) ID() string {
	return p.id
}

// Update replaces the attribute set. Resolution restarts only when the
// decoded file list differs by value from the previous one.
func (p *Panel) Update(attrs AttributeSet) {
	p.updateMu.Lock()
	defer p.updateMu.Unlock()

	files := jsonx.NormalizeStringsDepth(attrs.Files, p.maxDepth)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.attrs = attrs
	restart := !p.started || !slices.Equal(p.files, files)
	if restart {
		p.files = files
		p.started = true
	}
	p.mu.Unlock()

	if restart {
		p.logger.Debug("Resolving %d attachment(s)", len(files))
		// Start publishes the reset state through handleResolution.
		p.sequencer.Start(p.ctx, files)
		return
	}
	p.publish()
}

// Toggle handles a header activation. It reports whether the panel changed.
func (p *Panel) Toggle() bool {
	return p.controller.Toggle()
}

func (p *Panel) Open() bool {
	return p.controller.Open()
}

func (p *Panel) SetDisabled(disabled bool) {
	if p.controller.Disabled() == disabled {
		return
	}
	p.controller.SetDisabled(disabled)
	p.publish()
}

// SetBody replaces the default slot content.
func (p *Panel) SetBody(body string) {
	p.mu.Lock()
	p.body = body
	p.mu.Unlock()
	p.publish()
}

// Subscribe registers fn for view changes and returns its cancel function.
func (p *Panel) Subscribe(fn func(View)) func() {
	p.mu.Lock()
	key := p.nextSub
	p.nextSub++
	p.subscribers[key] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, key)
		p.mu.Unlock()
	}
}

// Wait blocks until the current resolution finishes.
func (p *Panel) Wait(ctx context.Context) error {
	return p.sequencer.Wait(ctx)
}

// Resolution returns the latest resolution snapshot.
func (p *Panel) Resolution() attachments.ResolutionState {
	return p.sequencer.Snapshot()
}

// Close stops resolution and drops every subscriber.
func (p *Panel) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.subscribers = make(map[int]func(View))
	p.mu.Unlock()

	p.sequencer.Stop()
	p.metrics.PanelRemoved()
}

func (p *Panel) handleToggle(open bool) {
	if p.recorder != nil {
		p.recorder.RecordToggle(p.ctx, open)
	}
	p.logger.Debug("Toggled open=%t", open)
	p.publish()
}

func (p *Panel) handleResolution(state attachments.ResolutionState) {
	p.mu.Lock()
	p.resolution = state
	p.mu.Unlock()

	if state.Done {
		for _, item := range p.dispatcher.DispatchAll(state) {
			if item.Branch != attachments.BranchNone {
				p.metrics.Presented(string(item.Branch))
			}
		}
	}
	p.publish()
}

// publish marks the view stale and delivers it unless another caller is
// already delivering, in which case that caller picks up the change.
func (p *Panel) publish() {
	p.mu.Lock()
	p.dirty = true
	if p.delivering {
		p.mu.Unlock()
		return
	}
	p.delivering = true
	for p.dirty {
		p.dirty = false
		p.revision++
		view := p.viewLocked()
		subs := p.subscribersLocked()
		p.mu.Unlock()
		notify(subs, view)
		p.mu.Lock()
	}
	p.delivering = false
	p.mu.Unlock()
}

func (p *Panel) subscribersLocked() []func(View) {
	subs := make([]func(View), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(View), view View) {
	for _, fn := range subs {
		fn(view)
	}
}
