package config

// PipelineConfig contains the configuration for the scheduled feature and labeling pipeline.
type PipelineConfig struct {
	// LabelingStrategy is the name of the strategy that generated signals are attached to.
	// The strategy is created on first use if it does not exist.
	LabelingStrategy string `yaml:"labeling_strategy"`

	// Jobs contains the scheduled pipeline runs.
	Jobs []PipelineJob `yaml:"jobs"`

	// AnalyticsSchedule is a cron expression for the daily-profit and
	// monthly-summary aggregation run. If empty, no aggregation is scheduled.
	AnalyticsSchedule string `yaml:"analytics_schedule"`
}

// PipelineJob describes one cron-scheduled feature-computation and labeling run.
type PipelineJob struct {
	// Schedule is a cron expression, for example "0 * * * *" for hourly runs.
	Schedule string `yaml:"schedule" validate:"required"`
	// Symbols contains the asset symbols to process.
	Symbols []string `yaml:"symbols" validate:"min=1"`
}
