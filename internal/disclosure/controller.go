package disclosure

import (
	"sync"

	"collapsible/internal/shared/utils/id"
)

// State is a point-in-time copy of a controller.
type State struct {
	Open          bool   `json:"open"`
	Disabled      bool   `json:"disabled"`
	CollapsibleID string `json:"collapsible_id"`
}

// Controller owns the open/closed flag of one panel. The caller's initial
// value is applied once; later changes only come from Toggle.
type Controller struct {
	mu        sync.Mutex
	open      bool
	disabled  bool
	id        string
	listeners []func(bool)
}

type Option func(*Controller)

func WithDisabled(disabled bool) Option {
	return func(c *Controller) {
		c.disabled = disabled
	}
}

// WithOnChange registers a listener at construction time.
func WithOnChange(fn func(bool)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.listeners = append(c.listeners, fn)
		}
	}
}

// WithCollapsibleID pins the namespace id instead of generating one.
func WithCollapsibleID(collapsibleID string) Option {
	return func(c *Controller) {
		if collapsibleID != "" {
			c.id = collapsibleID
		}
	}
}

func NewController(open bool, opts ...Option) *Controller {
	c := &Controller{open: open}
	for _, opt := range opts {
		opt(c)
	}
	if c.id == "" {
		c.id = id.NewCollapsibleID()
	}
	return c
}

func (c *Controller) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Controller) Disabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled
}

// CollapsibleID is stable for the controller's lifetime.
func (c *Controller) CollapsibleID() string {
	return c.id
}

func (c *Controller) SetDisabled(disabled bool) {
	c.mu.Lock()
	c.disabled = disabled
	c.mu.Unlock()
}

// OnChange adds a listener invoked with the new value after every transition.
func (c *Controller) OnChange(fn func(bool)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Toggle flips the panel in response to a header activation. It reports
// whether a transition happened; a disabled panel never transitions.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	if c.disabled {
		c.mu.Unlock()
		return false
	}
	c.open = !c.open
	open := c.open
	listeners := append([]func(bool){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(open)
	}
	return true
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Open: c.open, Disabled: c.disabled, CollapsibleID: c.id}
}
