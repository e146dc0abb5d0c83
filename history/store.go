package history

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/watershed/database"
	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/logger"
	"github.com/kbukum/watershed/observability"
	"github.com/kbukum/watershed/pipeline"
)

const statusSucceeded = string(pipeline.PhaseSucceeded)

// DefaultLimit is the number of runs Recent returns when asked for none.
const DefaultLimit = 20

// Store reads and writes run history.
type Store struct {
	db  *database.DB
	log *logger.Logger
}

// NewStore creates a Store on an open database whose schema is migrated.
func NewStore(db *database.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.WithComponent("history")
	}
	return &Store{db: db, log: log}
}

// FromRun converts a finished run into its record.
func FromRun(run *pipeline.Run) RunRecord {
	rec := RunRecord{
		ID:              run.ID,
		DEM:             run.Config.DEM,
		PourPoints:      run.Config.PourPoints,
		OutputDir:       run.Config.OutputDir,
		StreamThreshold: run.Config.StreamThreshold,
		Status:          string(run.State().Phase),
		ReportPath:      run.Outputs[pipeline.OutputStatistics],
		StartedAt:       run.StartedAt.UTC(),
		FinishedAt:      run.FinishedAt.UTC(),
		DurationMS:      run.Duration().Milliseconds(),
	}
	if run.Err != nil {
		rec.ErrorCode = string(run.Code())
		rec.ErrorMessage = run.Err.Error()
		rec.FailedStage = string(run.FailedStage())
	}
	if run.Summary != nil {
		rec.Watersheds = len(run.Summary.Watersheds)
	}
	for i, r := range run.Stages {
		rec.Stages = append(rec.Stages, StageRecord{
			RunID:      run.ID,
			Position:   i,
			Stage:      string(r.Stage),
			Status:     string(r.Status),
			Artifact:   r.Path(),
			ErrorCode:  string(errors.CodeOf(r.Err)),
			DurationMS: r.Duration.Milliseconds(),
		})
	}
	return rec
}

// Record stores a run that reached a terminal state. Recording the same run
// twice is a DATABASE_ERROR.
func (s *Store) Record(ctx context.Context, run *pipeline.Run) error {
	if run == nil {
		return errors.MissingField("run")
	}
	if !run.State().Terminal() {
		return errors.InvalidInput("run", "run has not finished")
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanHistory)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, run.ID)

	rec := FromRun(run)
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
	if err != nil {
		appErr := database.FromDatabase(err, "runs")
		observability.SetSpanError(ctx, appErr)
		s.log.WithContext(ctx).Warn("Failed to record run", logger.Fields(
			logger.FieldRunID, run.ID,
			logger.FieldError, appErr.Error(),
		))
		return appErr
	}

	s.log.WithContext(ctx).Debug("Run recorded", logger.Fields(
		logger.FieldRunID, run.ID,
		logger.FieldStatus, rec.Status,
		"stages", len(rec.Stages),
	))
	return nil
}

// Recent returns the latest runs, newest first, with their stages.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var runs []RunRecord
	err := s.db.WithContext(ctx).
		Preload("Stages", orderByPosition).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, database.FromDatabase(err, "runs")
	}
	return runs, nil
}

// Get returns one run by id. An unknown id is INVALID_INPUT on run_id.
func (s *Store) Get(ctx context.Context, id string) (*RunRecord, error) {
	if id == "" {
		return nil, errors.MissingField("run_id")
	}
	var rec RunRecord
	err := s.db.WithContext(ctx).
		Preload("Stages", orderByPosition).
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, database.FromDatabase(err, "run_id")
	}
	return &rec, nil
}

// Prune deletes runs that started before cutoff and returns how many went.
// Stage rows follow through the foreign key.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("started_at < ?", cutoff.UTC()).Delete(&RunRecord{})
	if res.Error != nil {
		return 0, database.FromDatabase(res.Error, "runs")
	}
	if res.RowsAffected > 0 {
		s.log.WithContext(ctx).Info("Pruned run history", logger.Fields("deleted", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}
