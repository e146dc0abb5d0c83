// Package stats summarizes delineated watersheds: planar area and perimeter
// of every polygon plus zonal elevation statistics sampled from the filled
// DEM, and renders them as a plain-text report.
//
// Areas are only meaningful in a projected reference system, so a layer in
// geographic coordinates is rejected with UNPROJECTED_CRS before any
// geometry is read.
package stats
