package gdal

import (
	"context"
	"sync"

	"github.com/kbukum/watershed/component"
	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/logger"
)

// Component checks the GDAL utilities at startup so a missing install fails
// before any toolbox call.
type Component struct {
	inspector *Inspector
	log       *logger.Logger

	mu      sync.RWMutex
	version string
}

var _ component.Component = (*Component)(nil)

// NewComponent wraps inspector.
func NewComponent(inspector *Inspector, log *logger.Logger) *Component {
	if log == nil {
		log = logger.WithComponent("gdal")
	}
	return &Component{inspector: inspector, log: log}
}

// Inspector returns the wrapped inspector.
func (c *Component) Inspector() *Inspector { return c.inspector }

func (c *Component) Name() string { return "inspector" }

// Start runs gdalinfo --version. Failure is TOOLBOX_UNAVAILABLE.
func (c *Component) Start(ctx context.Context) error {
	v, err := c.inspector.Version(ctx)
	if err != nil {
		return errors.ToolboxUnavailable("gdal", err.Error()).WithCause(err)
	}
	c.mu.Lock()
	c.version = v
	c.mu.Unlock()
	c.log.Debug("gdal ready", logger.Fields("version", v))
	return nil
}

func (c *Component) Stop(context.Context) error { return nil }

// Health reports whether the version check has succeeded.
func (c *Component) Health(context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.version == "" {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not checked"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	c.mu.RLock()
	defer c.mu.RUnlock()
	details := c.version
	if details == "" {
		details = c.inspector.cfg.GDALInfo
	}
	return component.Description{Name: "Inspector", Type: "inspector", Details: details}
}
