// Command watershed delineates watersheds from a DEM and a pour-point layer
// by driving an external GIS toolbox through fill, flow direction, flow
// accumulation, stream extraction and basin delineation, then writes a
// statistics report.
//
//	watershed run --dem dem.tif --pour-points outlets.shp --output-dir out
//	watershed history --limit 10
//	watershed version
package main

import (
	"context"
	"os"

	_ "github.com/kbukum/watershed/gateway/qgis"
	_ "github.com/kbukum/watershed/gateway/whitebox"
	_ "github.com/kbukum/watershed/storage/local"
	_ "github.com/kbukum/watershed/storage/s3"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
