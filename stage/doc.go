// Package stage wraps each gateway call of the delineation chain: fill,
// flow direction, flow accumulation, stream network and watershed
// delineation.
//
// A Runner reads its inputs from a shared State through typed Ports, builds
// the typed parameters of its algorithm, writes to a fixed file name in the
// run's output directory, and reports a Result that is either a Success
// carrying the artifact or a Failure carrying the reason.
package stage
