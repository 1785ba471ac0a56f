package domain

import (
	"context"
	"time"
)

// ExpiredJob identifies a job that was force-failed by the cleanup pass,
// carrying just enough to notify the originating chat.
type ExpiredJob struct {
	ID     string
	ChatID int64
}

// VideoJobRepository defines persistence for video generation jobs. Every
// mutation is a single-row conditional update; the conditional transition in
// ClaimTransition is the sole cross-process synchronization primitive.
type VideoJobRepository interface {
	Create(ctx context.Context, job *VideoJob) error
	GetByID(ctx context.Context, jobID string) (*VideoJob, error)

	// ListEligible returns jobs in the given status, oldest first, excluding
	// jobs whose expiry has already passed.
	ListEligible(ctx context.Context, status JobStatus, now time.Time, limit int) ([]VideoJob, error)

	// ClaimTransition atomically moves a job from one status to another. It
	// returns ErrConflict when the job is no longer in the expected status.
	ClaimTransition(ctx context.Context, jobID string, from, to JobStatus) (*VideoJob, error)

	// RecordSubmission stores the provider task id and the processing start
	// time once the provider accepts the job.
	RecordSubmission(ctx context.Context, jobID, providerTaskID string) error

	MarkCompleted(ctx context.Context, jobID, resultLocation string) error
	MarkFailed(ctx context.Context, jobID, errorMessage string) error
	MarkTimeoutWaiting(ctx context.Context, jobID string) error

	// IncrementAttempt bumps the attempt counter and returns the new count
	// together with the job's attempt bound. It returns ErrRetryExhausted
	// when the counter already reached the bound.
	IncrementAttempt(ctx context.Context, jobID string) (attempts, maxAttempts int, err error)

	// ExpireStale force-fails every non-terminal job whose expiry passed,
	// returning the affected jobs. Idempotent.
	ExpireStale(ctx context.Context, now time.Time, message string) ([]ExpiredJob, error)

	// ReclaimStuck recovers processing jobs abandoned by a crashed worker:
	// jobs untouched since cutoff move back to timeout_waiting when a
	// provider task id exists, otherwise back to pending.
	ReclaimStuck(ctx context.Context, cutoff time.Time) (int64, error)
}

// FeatureFlagRepository reads boolean keyed settings consulted at intake.
type FeatureFlagRepository interface {
	// Enabled returns the flag value, or fallback when the key is absent.
	Enabled(ctx context.Context, key string, fallback bool) (bool, error)
}
