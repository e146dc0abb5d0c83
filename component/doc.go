// Package component defines the lifecycle contract for long-lived
// resources such as the algorithm toolbox, the GDAL inspector, the
// run-history database and telemetry exporters.
//
// Components are started in registration order before any pipeline work
// begins and stopped in reverse order when the run ends.
package component
