package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when scheduler configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSchedulerNotRunning is returned when submitting work to a stopped
	// scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue cannot accept more work
	ErrJobQueueFull = errors.New("job queue is full")
)
