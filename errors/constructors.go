package errors

import (
	"fmt"
)

// --- Input validation ---

// InvalidDEM creates an error for a DEM that cannot be used.
func InvalidDEM(path, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidDEM, Message: fmt.Sprintf("DEM is not usable: %s", reason),
		Details: map[string]any{DetailArtifact: path},
	}
}

// InvalidPourPoints creates an error for a pour-point layer that cannot be used.
func InvalidPourPoints(path, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidPourPoints, Message: fmt.Sprintf("pour points are not usable: %s", reason),
		Details: map[string]any{DetailArtifact: path},
	}
}

// CRSMismatch creates an error for inputs in different reference systems.
func CRSMismatch(demCRS, pointsCRS string) *AppError {
	return &AppError{
		Code:    ErrCodeCRSMismatch,
		Message: "DEM and pour points use different coordinate reference systems",
		Details: map[string]any{"dem_crs": demCRS, "pour_points_crs": pointsCRS},
	}
}

// OutOfBounds creates an error for pour points that do not overlap the DEM.
func OutOfBounds(demExtent, pointsExtent string) *AppError {
	return &AppError{
		Code:    ErrCodeOutOfBounds,
		Message: "pour points do not intersect the DEM extent",
		Details: map[string]any{"dem_extent": demExtent, "pour_points_extent": pointsExtent},
	}
}

// --- Algorithm ---

// AlgorithmNotFound creates an error for an algorithm the toolbox does not provide.
func AlgorithmNotFound(algorithm, toolbox string) *AppError {
	return &AppError{
		Code: ErrCodeAlgorithmNotFound, Message: fmt.Sprintf("toolbox %q has no algorithm %q", toolbox, algorithm),
		Details: map[string]any{DetailAlgorithm: algorithm, DetailToolbox: toolbox},
	}
}

// AlgorithmExecutionFailed creates an error carrying the toolbox's diagnostic text.
func AlgorithmExecutionFailed(algorithm, diagnostic string, cause error) *AppError {
	details := map[string]any{DetailAlgorithm: algorithm}
	if diagnostic != "" {
		details[DetailDiagnostic] = diagnostic
	}
	return &AppError{
		Code: ErrCodeAlgorithmExecutionFailed, Message: fmt.Sprintf("algorithm %q failed", algorithm),
		Details: details, Cause: cause,
	}
}

// --- Aggregation ---

// UnprojectedCRS creates an error for a layer whose units are not planar.
func UnprojectedCRS(path, crs string) *AppError {
	return &AppError{
		Code:    ErrCodeUnprojectedCRS,
		Message: "watershed layer is not in a projected coordinate reference system",
		Details: map[string]any{DetailArtifact: path, "crs": crs},
	}
}

// EmptyWatershedSet creates an error for a watershed layer without features.
func EmptyWatershedSet(path string) *AppError {
	return &AppError{
		Code: ErrCodeEmptyWatershedSet, Message: "watershed layer contains no features",
		Details: map[string]any{DetailArtifact: path},
	}
}

// --- Configuration ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details[DetailField] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("missing required field: %s", field),
		Details: map[string]any{DetailField: field},
	}
}

// --- Infrastructure ---

// ToolboxUnavailable creates an error for a toolbox that cannot serve calls.
func ToolboxUnavailable(toolbox, reason string) *AppError {
	return &AppError{
		Code: ErrCodeToolboxUnavailable, Message: fmt.Sprintf("toolbox %q is unavailable: %s", toolbox, reason),
		Details: map[string]any{DetailToolbox: toolbox},
	}
}

// Timeout creates a new AppError for an operation that ran past its deadline.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s timed out", operation),
		Details: map[string]any{"operation": operation},
	}
}

// Canceled creates a new AppError for an operation stopped by its caller.
func Canceled(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: fmt.Sprintf("%s was canceled", operation),
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// StorageError creates a new AppError for an archive backend failure.
func StorageError(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorageError, Message: fmt.Sprintf("storage %s failed", operation),
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// DatabaseError creates a new AppError for a database error.
func DatabaseError(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDatabaseError, Message: "a database error occurred",
		Cause: cause,
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		Cause: cause,
	}
}
