package history

import "time"

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID              string `gorm:"primaryKey"`
	DEM             string `gorm:"column:dem"`
	PourPoints      string
	OutputDir       string
	StreamThreshold int
	Status          string
	ErrorCode       string
	ErrorMessage    string
	FailedStage     string
	ReportPath      string
	Watersheds      int
	StartedAt       time.Time
	FinishedAt      time.Time
	DurationMS      int64 `gorm:"column:duration_ms"`

	Stages []StageRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (RunRecord) TableName() string { return "runs" }

// Succeeded reports whether the recorded run completed.
func (r RunRecord) Succeeded() bool { return r.Status == statusSucceeded }

// Duration is the recorded wall time.
func (r RunRecord) Duration() time.Duration { return time.Duration(r.DurationMS) * time.Millisecond }

// StageRecord is one executed stage of a run.
type StageRecord struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"index"`
	Position   int
	Stage      string
	Status     string
	Artifact   string
	ErrorCode  string
	DurationMS int64 `gorm:"column:duration_ms"`
}

func (StageRecord) TableName() string { return "run_stages" }
