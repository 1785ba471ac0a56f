package domain

import "time"

// JobStatus enumerates video job lifecycle states.
type JobStatus string

const (
	JobStatusPending        JobStatus = "pending"
	JobStatusProcessing     JobStatus = "processing"
	JobStatusTimeoutWaiting JobStatus = "timeout_waiting"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusFailed         JobStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is allowed by the job
// state machine. Terminal states never regress.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusFailed
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed || next == JobStatusTimeoutWaiting
	case JobStatusTimeoutWaiting:
		return next == JobStatusProcessing || next == JobStatusFailed
	default:
		return false
	}
}

// VideoJob tracks one video generation request end-to-end, from intake
// through provider submission and polling to delivery.
type VideoJob struct {
	ID                  string
	UserID              int64
	ChatID              int64
	RelatedRequestID    string
	Provider            string
	ModelID             string
	ProviderTaskID      string
	Status              JobStatus
	Prompt              string
	InputParams         []byte
	ResultLocation      string
	ErrorMessage        string
	TokensCost          int
	AttemptCount        int
	MaxAttempts         int
	StartedProcessingAt *time.Time
	CompletedAt         *time.Time
	ExpiresAt           time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Expired reports whether the job passed its fixed deadline. ExpiresAt is set
// once at creation and never recomputed.
func (j *VideoJob) Expired(now time.Time) bool {
	return now.After(j.ExpiresAt)
}

// Standardized failure messages recorded on expired and retry-exhausted jobs.
// Analytics relies on these being distinguishable from provider errors.
const (
	ExpiryMessage         = "job expired before the provider finished"
	RetryExhaustedMessage = "generation did not finish within the allowed attempts"
)
