// Package pipeline sequences a watershed delineation run.
//
// A run validates its inputs, executes the five stages in fixed dependency
// order (fill, flow direction, flow accumulation, stream network, watershed
// delineation) and aggregates statistics over the resulting polygons:
//
//	NotStarted → Validating → Running(0) … Running(4) → Aggregating → Succeeded
//
// Any failure moves the run to Failed and nothing after it executes.
// Artifacts already written are left in the output directory for
// inspection. The stream network is sequenced like every other stage but
// nothing downstream reads it.
//
//	orch := pipeline.New(validator, toolbox, aggregator)
//	cfg := pipeline.DefaultConfig()
//	cfg.DEM, cfg.PourPoints, cfg.OutputDir = "dem.tif", "outlets.shp", "out"
//	run, err := orch.Run(ctx, cfg)
//	fmt.Println(run.State(), run.Outputs)
package pipeline
