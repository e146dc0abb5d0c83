package stage

import (
	"fmt"
	"sync"

	"github.com/kbukum/watershed/geo"
)

// State carries artifacts from one stage to the next.
type State struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewState creates an empty State.
func NewState() *State {
	return &State{data: make(map[string]any)}
}

// Get retrieves a value by key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores a value by key.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Port is a typed key into State, so a stage cannot read a vector where it
// expects a raster.
type Port[T any] struct {
	Key string
}

// Read retrieves a typed value.
func Read[T any](state *State, port Port[T]) (T, error) {
	var zero T
	raw, ok := state.Get(port.Key)
	if !ok {
		return zero, fmt.Errorf("stage: artifact %q not available", port.Key)
	}
	val, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("stage: artifact %q: expected %T, got %T", port.Key, zero, raw)
	}
	return val, nil
}

// Write stores a typed value.
func Write[T any](state *State, port Port[T], value T) {
	state.Set(port.Key, value)
}

// Ports shared by the runners. Inputs are seeded by the orchestrator after
// validation; every other port is written by exactly one stage.
var (
	DEMPort              = Port[*geo.RasterArtifact]{Key: "dem"}
	PourPointsPort       = Port[*geo.VectorArtifact]{Key: "pour_points"}
	FilledDEMPort        = Port[*geo.RasterArtifact]{Key: "filled_dem"}
	FlowDirectionPort    = Port[*geo.RasterArtifact]{Key: "flow_direction"}
	FlowAccumulationPort = Port[*geo.RasterArtifact]{Key: "flow_accumulation"}
	StreamNetworkPort    = Port[*geo.RasterArtifact]{Key: "stream_network"}
	WatershedsPort       = Port[*geo.VectorArtifact]{Key: "watersheds"}
)
