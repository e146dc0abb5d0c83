package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/watershed/component"
)

// InfrastructureInfo is one line of the infrastructure section.
type InfrastructureInfo struct {
	Name    string
	Type    string // "toolbox", "inspector", "database", "storage", "telemetry"
	Details string
	Healthy bool
}

// Summary collects what the application started and prints it once.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
	health          []component.Health
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackInfrastructure adds an infrastructure line by hand.
func (s *Summary) TrackInfrastructure(name, componentType, details string, healthy bool) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name: name, Type: componentType, Details: details, Healthy: healthy,
	})
}

// CollectFromRegistry records every Describable component and the live
// health of all components.
func (s *Summary) CollectFromRegistry(ctx context.Context, registry *component.Registry) {
	if registry == nil {
		return
	}
	s.health = registry.HealthAll(ctx)
	healthy := make(map[string]bool, len(s.health))
	for _, h := range s.health {
		healthy[h.Name] = h.Status == component.StatusHealthy
	}
	for _, c := range registry.All() {
		d, ok := c.(component.Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		name := desc.Name
		if name == "" {
			name = c.Name()
		}
		s.TrackInfrastructure(name, desc.Type, desc.Details, healthy[c.Name()])
	}
}

// Display writes the summary to w.
func (s *Summary) Display(w io.Writer) {
	if w == nil || w == io.Discard {
		return
	}
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n", s.serviceName, version, s.startupDuration.Seconds())

	if len(s.infrastructure) > 0 {
		fmt.Fprintf(w, "\nInfrastructure\n")
		for i, inf := range s.infrastructure {
			fmt.Fprintf(w, "   %s %s %s: %s\n", treePrefix(i, len(s.infrastructure)), statusIcon(inf.Healthy), inf.Name, inf.Details)
		}
	}

	if len(s.health) > 0 {
		fmt.Fprintf(w, "\nHealth\n")
		for i, h := range s.health {
			msg := ""
			if h.Message != "" {
				msg = " - " + h.Message
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n", treePrefix(i, len(s.health)), healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
		}
	}
	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func statusIcon(healthy bool) string {
	if healthy {
		return "✅"
	}
	return "❌"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
