package stage

import (
	"time"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/geo"
)

// Status is the tag of a Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result is the outcome of one stage: Success with the produced artifact,
// or Failure with the reason.
type Result struct {
	Stage    Name
	Status   Status
	Artifact geo.Artifact
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Success builds a successful result.
func Success(stage Name, artifact geo.Artifact, started time.Time) Result {
	return Result{Stage: stage, Status: StatusSuccess, Artifact: artifact, Started: started, Duration: time.Since(started)}
}

// Failure builds a failed result. The error gains the stage name as a
// detail on a copy, so the caller's error is never modified. When err wraps
// the AppError, the copy keeps err as its cause.
func Failure(stage Name, err error, started time.Time) Result {
	if appErr, ok := errors.AsAppError(err); ok {
		decorated := appErr.Clone().WithDetail(errors.DetailStage, string(stage))
		if error(appErr) != err {
			decorated.Cause = err
		}
		err = decorated
	} else {
		err = errors.Internal(err).WithDetail(errors.DetailStage, string(stage))
	}
	return Result{Stage: stage, Status: StatusFailure, Err: err, Started: started, Duration: time.Since(started)}
}

// OK reports whether the stage succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Path returns the artifact path, or "" for a failure.
func (r Result) Path() string {
	if r.Artifact == nil {
		return ""
	}
	return r.Artifact.ArtifactPath()
}
