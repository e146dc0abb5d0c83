// Package gateway is the boundary to the external GIS toolbox.
//
// A Gateway runs one named hydrological algorithm with typed parameters and
// returns the descriptor of the artifact it produced. The production
// Gateway is Toolbox: a lifecycle component that owns one Backend (QGIS or
// WhiteboxTools, registered by the subpackages), wraps it with the provider
// logging, tracing and metrics middleware, and checks and describes each
// output before handing it back.
//
// Backends register themselves from init, so importing a backend package
// for side effects makes it selectable by name:
//
//	import _ "github.com/kbukum/watershed/gateway/qgis"
package gateway
