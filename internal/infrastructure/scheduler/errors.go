package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when jobs are registered after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrJobNotFound is returned by RunOnce for an unknown job name
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("job already registered")

	// ErrInvalidJob is returned for a job without name, function or positive interval
	ErrInvalidJob = errors.New("invalid job definition")
)
