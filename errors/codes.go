package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Kind groups error codes into the categories callers branch on.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAlgorithm      Kind = "algorithm"
	KindAggregation    Kind = "aggregation"
	KindConfiguration  Kind = "configuration"
	KindInfrastructure Kind = "infrastructure"
	KindInternal       Kind = "internal"
)

// Input validation errors, raised before any toolbox call.
const (
	// ErrCodeInvalidDEM indicates the DEM is unreadable or has no reference system.
	ErrCodeInvalidDEM ErrorCode = "INVALID_DEM"
	// ErrCodeInvalidPourPoints indicates the pour-point layer is unreadable, empty or has no reference system.
	ErrCodeInvalidPourPoints ErrorCode = "INVALID_POUR_POINTS"
	// ErrCodeCRSMismatch indicates the DEM and pour points use different reference systems.
	ErrCodeCRSMismatch ErrorCode = "CRS_MISMATCH"
	// ErrCodeOutOfBounds indicates the pour points do not overlap the DEM.
	ErrCodeOutOfBounds ErrorCode = "OUT_OF_BOUNDS"
)

// Algorithm errors, raised by the toolbox gateway.
const (
	ErrCodeAlgorithmNotFound        ErrorCode = "ALGORITHM_NOT_FOUND"
	ErrCodeAlgorithmExecutionFailed ErrorCode = "ALGORITHM_EXECUTION_FAILED"
)

// Aggregation errors, raised after every stage has completed.
const (
	// ErrCodeUnprojectedCRS indicates the watershed layer is in geographic units.
	ErrCodeUnprojectedCRS ErrorCode = "UNPROJECTED_CRS"
	// ErrCodeEmptyWatershedSet indicates the watershed layer has no features.
	ErrCodeEmptyWatershedSet ErrorCode = "EMPTY_WATERSHED_SET"
)

// Configuration errors
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Infrastructure errors
const (
	// ErrCodeToolboxUnavailable indicates the toolbox was not started or its binary is missing.
	ErrCodeToolboxUnavailable ErrorCode = "TOOLBOX_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeCanceled           ErrorCode = "CANCELED"
	ErrCodeStorageError       ErrorCode = "STORAGE_ERROR"
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
)

// Internal errors
const (
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var codeKinds = map[ErrorCode]Kind{
	ErrCodeInvalidDEM:               KindValidation,
	ErrCodeInvalidPourPoints:        KindValidation,
	ErrCodeCRSMismatch:              KindValidation,
	ErrCodeOutOfBounds:              KindValidation,
	ErrCodeAlgorithmNotFound:        KindAlgorithm,
	ErrCodeAlgorithmExecutionFailed: KindAlgorithm,
	ErrCodeUnprojectedCRS:           KindAggregation,
	ErrCodeEmptyWatershedSet:        KindAggregation,
	ErrCodeInvalidInput:             KindConfiguration,
	ErrCodeMissingField:             KindConfiguration,
	ErrCodeToolboxUnavailable:       KindInfrastructure,
	ErrCodeTimeout:                  KindInfrastructure,
	ErrCodeCanceled:                 KindInfrastructure,
	ErrCodeStorageError:             KindInfrastructure,
	ErrCodeDatabaseError:            KindInfrastructure,
	ErrCodeInternal:                 KindInternal,
}

// KindOf returns the category of an error code. Unknown codes are internal.
func KindOf(code ErrorCode) Kind {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	return KindInternal
}
