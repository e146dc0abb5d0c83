// Package provider implements a small generic provider framework used to
// put swappable backends (algorithm toolboxes, GDAL command-line tools)
// behind one request/response shape.
//
//   - RequestResponse[I, O]: one input, one output
//   - Initializable / Closeable: opt-in lifecycle for providers that
//     check binaries or hold resources
//
// # Middleware
//
// Middleware[I, O] wraps a RequestResponse provider. Use Chain to compose:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	    provider.WithTracing[In, Out]("toolbox"),
//	)(backend)
//
// Inputs implementing Describer contribute fields to log lines and span
// attributes.
//
// # Registry
//
//	reg := provider.NewRegistry[Config, Backend]()
//	reg.RegisterFactory("qgis", qgis.New)
//	backend, err := reg.Create("qgis", cfg)
package provider
