// Package storage archives the outputs of a finished run to object storage.
//
// Backends register themselves by provider name; import the ones you need:
//
//	import (
//	    _ "github.com/kbukum/watershed/storage/local"
//	    _ "github.com/kbukum/watershed/storage/s3"
//	)
//
// An Archiver uploads every output file of a run, shapefile sidecars
// included, under <prefix>/<run-id>/ with bounded concurrency. Archive
// failures are STORAGE_ERROR and never change the outcome of the run.
package storage
