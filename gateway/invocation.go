package gateway

import (
	"time"

	"github.com/kbukum/watershed/geo"
)

// Invocation is one request to a Backend.
type Invocation struct {
	Params     Params
	OutputPath string
}

// Algorithm returns the algorithm of the invocation's parameters.
func (i Invocation) Algorithm() AlgorithmID {
	if i.Params == nil {
		return ""
	}
	return i.Params.Algorithm()
}

// Describe feeds the provider logging and tracing middleware.
func (i Invocation) Describe() map[string]any {
	return map[string]any{
		"algorithm": string(i.Algorithm()),
		"artifact":  i.OutputPath,
	}
}

// Output is what a Backend reports after a successful run.
type Output struct {
	// Path is the file the backend wrote. It equals the invocation's
	// OutputPath unless the backend had to pick a sibling name.
	Path string
	Kind geo.ArtifactKind
	// Messages is the tail of the tool's own output, kept for debug logs.
	Messages string
	Duration time.Duration
}
