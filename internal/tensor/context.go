package tensor

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Context is the execution context of one device stream. Operations receive it
// explicitly and keep their per-stream scratch state in it, so no hidden state is shared
// between calls on different streams.
//
// A Context is driven by one goroutine at a time and is not synchronized internally;
// callers sharing one across goroutines must serialize access.
type Context struct {
	id        uuid.UUID
	device    Device
	resources map[any]any
}

// NewContext creates an execution context for device.
// Panics if the device has no registered backend.
func NewContext(device Device) *Context {
	Expect(IsRegistered(device), "context requested for unregistered device %s", device)

	ctx := &Context{
		id:        uuid.New(),
		device:    device,
		resources: make(map[any]any),
	}
	log.WithFields(logrus.Fields{"device": device, "context": ctx.id}).Debug("context created")
	return ctx
}

// Device returns the device the context drives.
func (c *Context) Device() Device {
	return c.device
}

// ID returns the unique identifier of the context.
func (c *Context) ID() string {
	return c.id.String()
}

// Resource returns the value stored under key.
func (c *Context) Resource(key any) (any, bool) {
	v, ok := c.resources[key]
	return v, ok
}

// SetResource stores value under key, replacing any previous value.
func (c *Context) SetResource(key, value any) {
	c.resources[key] = value
}

// Close releases every resource that implements Release and empties the context.
func (c *Context) Close() {
	for key, v := range c.resources {
		if r, ok := v.(interface{ Release() }); ok {
			r.Release()
		}
		delete(c.resources, key)
	}
	log.WithField("context", c.id).Debug("context closed")
}
