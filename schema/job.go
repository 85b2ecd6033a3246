package schema

import "strings"

// JobStatus is the lifecycle state of a backend job as last reported.
type JobStatus string

const (
	// JobSubmitted is set before the backend acknowledged the job.
	JobSubmitted JobStatus = "submitted"
	// JobQueued means the backend accepted the job but has not started it.
	JobQueued JobStatus = "queued"
	// JobRunning is the initial state after submission and while executing.
	JobRunning JobStatus = "running"
	// JobCompleted is a terminal success state.
	JobCompleted JobStatus = "completed"
	// JobDone is a terminal success state used by some providers.
	JobDone JobStatus = "done"
	// JobError is a terminal failure state.
	JobError JobStatus = "error"
	// JobFailed is a terminal failure state used by some providers.
	JobFailed JobStatus = "failed"
	// JobCancelled is a terminal state for cancelled jobs.
	JobCancelled JobStatus = "cancelled"
)

// NormalizeJobStatus lower-cases and trims a provider status string.
func NormalizeJobStatus(value string) JobStatus {
	return JobStatus(strings.ToLower(strings.TrimSpace(value)))
}

// IsTerminal reports whether no further status changes are expected.
func (s JobStatus) IsTerminal() bool {
	switch NormalizeJobStatus(string(s)) {
	case JobDone, JobCompleted, JobCancelled, "canceled", JobError, JobFailed:
		return true
	default:
		return false
	}
}
