// Package geo holds the descriptors of the datasets a delineation run reads
// and produces: raster and vector artifacts, their coordinate reference
// systems and extents, and an in-memory cell grid used for zonal statistics.
//
// Nothing in this package touches GIS libraries directly. Reading dataset
// metadata is delegated to an Inspector, whose production implementation
// lives in geo/gdal.
package geo
