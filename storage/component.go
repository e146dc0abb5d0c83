package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/watershed/component"
	"github.com/kbukum/watershed/logger"
	"github.com/kbukum/watershed/observability"
)

// Component owns the archive backend's lifecycle.
type Component struct {
	cfg         Config
	providerCfg any
	log         *logger.Logger
	metrics     func() *observability.Metrics

	storage  Storage
	archiver *Archiver
}

var _ component.Component = (*Component)(nil)

// NewComponent creates an archive component. metrics is resolved at Start
// and may be nil.
func NewComponent(cfg Config, providerCfg any, log *logger.Logger, metrics func() *observability.Metrics) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{
		cfg:         cfg,
		providerCfg: providerCfg,
		log:         log.WithComponent("storage"),
		metrics:     metrics,
	}
}

// Storage returns the backend, or nil when disabled or not started.
func (c *Component) Storage() Storage { return c.storage }

// Archiver returns the archiver, or nil when disabled or not started.
func (c *Component) Archiver() *Archiver { return c.archiver }

func (c *Component) Name() string { return "storage" }

// Start creates the backend.
func (c *Component) Start(_ context.Context) error {
	if !c.cfg.Enabled {
		c.log.Debug("archive disabled")
		return nil
	}
	s, err := New(c.cfg, c.providerCfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	var metrics *observability.Metrics
	if c.metrics != nil {
		metrics = c.metrics()
	}
	c.storage = s
	c.archiver = NewArchiver(s, c.cfg, c.log, metrics)
	return nil
}

// Stop drops the backend.
func (c *Component) Stop(_ context.Context) error {
	c.storage = nil
	c.archiver = nil
	return nil
}

// Health checks the backend by resolving a URL.
func (c *Component) Health(ctx context.Context) component.Health {
	switch {
	case !c.cfg.Enabled:
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "disabled"}
	case c.storage == nil:
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "storage not initialized"}
	}
	if _, err := c.storage.URL(ctx, c.cfg.Prefix); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("health check failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s prefix=%s", c.cfg.Provider, c.cfg.Prefix)
	if bp, ok := c.providerCfg.(BucketDescriber); ok {
		if b := bp.GetBucket(); b != "" {
			details += " bucket=" + b
		}
	}
	if !c.cfg.Enabled {
		details = "disabled"
	}
	return component.Description{Name: "Archive", Type: "storage", Details: details}
}

// BucketDescriber is optionally implemented by provider configs that use a bucket.
type BucketDescriber interface {
	GetBucket() string
}
