package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component represents a lifecycle-managed resource.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start acquires the resource. It is called once before first use.
	Start(ctx context.Context) error

	// Stop releases the resource.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description holds summary information for the startup display.
type Description struct {
	// Name is the display name. If empty, the component's Name() is used.
	Name string
	// Type categorizes the component: "toolbox", "inspector", "database", "storage", "telemetry".
	Type string
	// Details is a one-liner shown in the startup summary, e.g. "qgis_process 3.34.4 (5 algorithms)".
	Details string
}

// Describable is optionally implemented by Components to self-report
// in the startup summary.
type Describable interface {
	Describe() Description
}
