package gateway

import (
	"context"

	"github.com/kbukum/watershed/geo"
)

// Gateway runs one external algorithm and returns the descriptor of the
// artifact written to outputPath.
//
// Failures are ALGORITHM_NOT_FOUND when the toolbox lacks the algorithm and
// ALGORITHM_EXECUTION_FAILED, with the toolbox's diagnostic, otherwise.
type Gateway interface {
	Invoke(ctx context.Context, params Params, outputPath string) (geo.Artifact, error)
}
