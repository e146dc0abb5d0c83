// Package gdal implements geo.Inspector on top of the GDAL command-line
// utilities. Metadata comes from `gdalinfo -json` and `ogrinfo -json -so`
// (GDAL 3.7 or newer), features from `ogr2ogr -f GeoJSON /vsistdout/` and
// cell values from `gdal_translate -of AAIGrid`.
//
// Each tool call goes through a provider.RequestResponse[process.Command,
// *process.Result], so the caller can wrap the runner with the usual
// logging, tracing and metrics middleware.
package gdal
