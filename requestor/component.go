package requestor

import (
	"context"
	"fmt"

	"github.com/kbukum/objfetch/component"
	"github.com/kbukum/objfetch/resilience"
)

// Component wraps a Requestor with lifecycle management. The
// certificate resolution and transport construction happen in Start,
// so a managed application can register the component before the
// certificate store is reachable.
type Component struct {
	config    Config
	creds     CredentialSource
	throttle  *resilience.Throttle
	opts      []Option
	requestor *Requestor
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a requestor component. The Requestor is
// created lazily in Start().
func NewComponent(cfg Config, creds CredentialSource, throttle *resilience.Throttle, opts ...Option) *Component {
	return &Component{config: cfg, creds: creds, throttle: throttle, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	return "requestor"
}

// Start resolves the client certificate and builds the transport.
func (c *Component) Start(_ context.Context) error {
	r, err := New(c.config, c.creds, c.throttle, c.opts...)
	if err != nil {
		return err
	}
	c.requestor = r
	return nil
}

// Stop closes the certificate store handle and idle connections.
func (c *Component) Stop(_ context.Context) error {
	if c.requestor != nil {
		return c.requestor.Close()
	}
	return nil
}

// Health reports whether the requestor is built and how saturated the
// connection gate is.
func (c *Component) Health(_ context.Context) component.Health {
	if c.requestor == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "not started",
		}
	}
	status := component.StatusHealthy
	if c.requestor.Throttle().Available() == 0 {
		status = component.StatusDegraded
	}
	return component.Health{Name: c.Name(), Status: status}
}

// Describe returns component description for the startup summary.
func (c *Component) Describe() component.Description {
	details := c.config.Product
	if c.throttle != nil {
		details = fmt.Sprintf("%s slots=%d", details, c.throttle.Capacity())
	}
	return component.Description{
		Name:    "Requestor",
		Type:    "client",
		Details: details,
	}
}

// Requestor returns the underlying instance. Must be called after Start().
func (c *Component) Requestor() *Requestor {
	return c.requestor
}
