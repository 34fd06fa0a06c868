package httpclient

import (
	"context"
	"fmt"

	"github.com/kbukum/restverb/component"
)

// Component wraps an Executor with lifecycle management for applications
// that register their upstream APIs with a component.Registry.
type Component struct {
	exec   *Executor
	config Config
	opts   []Option
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a component for cfg. The executor is built in Start.
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.config.Name
}

// Start validates the configuration and builds the executor.
func (c *Component) Start(_ context.Context) error {
	exec, err := NewFromConfig(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.exec = exec
	return nil
}

// Stop releases the executor. Connections are never pooled, so there is
// nothing to drain.
func (c *Component) Stop(_ context.Context) error {
	c.exec = nil
	return nil
}

// Health reports healthy once the executor is built.
func (c *Component) Health(_ context.Context) component.Health {
	if c.exec == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns a one-line summary of the component.
func (c *Component) Describe() component.Description {
	return component.Description{
		Type:    "http-client",
		Details: fmt.Sprintf("base=%s", c.config.BaseURL),
	}
}

// Executor returns the executor. It is nil before Start.
func (c *Component) Executor() *Executor {
	return c.exec
}
