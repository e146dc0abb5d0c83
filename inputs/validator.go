package inputs

import (
	"context"
	"fmt"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/geo"
	"github.com/kbukum/watershed/logger"
	"github.com/kbukum/watershed/observability"
)

// Validated holds the descriptors of inputs that passed every check.
type Validated struct {
	DEM        *geo.RasterArtifact
	PourPoints *geo.VectorArtifact
}

// Validator runs the input checks in a fixed order and stops at the first
// failure:
//
//  1. the DEM is readable and has a CRS (INVALID_DEM)
//  2. the pour points are readable, hold at least one feature, point-typed and have a CRS
//     (INVALID_POUR_POINTS)
//  3. both CRSs match (CRS_MISMATCH)
//  4. the pour-point extent intersects the DEM extent (OUT_OF_BOUNDS)
//
// It only reads metadata and has no side effects.
type Validator struct {
	inspector geo.Inspector
	log       *logger.Logger
}

// NewValidator creates a Validator reading metadata through inspector.
func NewValidator(inspector geo.Inspector, log *logger.Logger) *Validator {
	if log == nil {
		log = logger.WithComponent("inputs")
	}
	return &Validator{inspector: inspector, log: log}
}

// Validate checks demPath and pointsPath.
func (v *Validator) Validate(ctx context.Context, demPath, pointsPath string) (*Validated, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanValidate)
	defer span.End()

	out, err := v.validate(ctx, demPath, pointsPath)
	if err != nil {
		observability.SetSpanError(ctx, err)
		v.log.WithContext(ctx).Warn("input validation failed", logger.Fields(
			logger.FieldCode, string(errors.CodeOf(err)),
			logger.FieldError, err.Error(),
		))
		return nil, err
	}
	v.log.WithContext(ctx).Debug("inputs valid", logger.Fields(
		"dem", out.DEM.String(),
		"pour_points", out.PourPoints.String(),
	))
	return out, nil
}

func (v *Validator) validate(ctx context.Context, demPath, pointsPath string) (*Validated, error) {
	dem, err := v.checkDEM(ctx, demPath)
	if err != nil {
		return nil, err
	}
	pts, err := v.checkPourPoints(ctx, pointsPath)
	if err != nil {
		return nil, err
	}
	if !dem.CRS.Equal(pts.CRS) {
		return nil, errors.CRSMismatch(dem.CRS.String(), pts.CRS.String())
	}
	if !dem.Extent.Intersects(pts.Extent) {
		return nil, errors.OutOfBounds(dem.Extent.String(), pts.Extent.String())
	}
	return &Validated{DEM: dem, PourPoints: pts}, nil
}

func (v *Validator) checkDEM(ctx context.Context, path string) (*geo.RasterArtifact, error) {
	if path == "" {
		return nil, errors.InvalidDEM(path, "no path given")
	}
	dem, err := v.inspector.DescribeRaster(ctx, path)
	if err != nil {
		return nil, errors.InvalidDEM(path, fmt.Sprintf("cannot read raster: %v", err)).WithCause(err)
	}
	if !dem.CRS.Defined() {
		return nil, errors.InvalidDEM(path, "no coordinate reference system defined")
	}
	if !dem.Extent.Valid() || dem.Width < 1 || dem.Height < 1 {
		return nil, errors.InvalidDEM(path, "raster has no valid extent")
	}
	return dem, nil
}

func (v *Validator) checkPourPoints(ctx context.Context, path string) (*geo.VectorArtifact, error) {
	if path == "" {
		return nil, errors.InvalidPourPoints(path, "no path given")
	}
	pts, err := v.inspector.DescribeVector(ctx, path)
	if err != nil {
		return nil, errors.InvalidPourPoints(path, fmt.Sprintf("cannot read layer: %v", err)).WithCause(err)
	}
	if pts.FeatureCount < 0 {
		// The driver could not count cheaply; read the layer to be sure it is
		// not empty.
		fc, err := v.inspector.ReadFeatures(ctx, path)
		if err != nil {
			return nil, errors.InvalidPourPoints(path, fmt.Sprintf("cannot read features: %v", err)).WithCause(err)
		}
		counted := *pts
		counted.FeatureCount = int64(len(fc.Features))
		pts = &counted
	}
	if pts.FeatureCount == 0 {
		return nil, errors.InvalidPourPoints(path, "layer has no features")
	}
	if !pts.CRS.Defined() {
		return nil, errors.InvalidPourPoints(path, "no coordinate reference system defined")
	}
	// Unknown is what drivers without a declared type report; only a
	// declared non-point type is rejected.
	if pts.GeometryType != geo.GeometryUnknown && !pts.GeometryType.PointLike() {
		return nil, errors.InvalidPourPoints(path, fmt.Sprintf("geometry type %s is not a point type", pts.GeometryType))
	}
	return pts, nil
}
