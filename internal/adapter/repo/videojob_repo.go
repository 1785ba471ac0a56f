package repo

import (
	"context"
	"time"

	"botserver/internal/domain"
	"botserver/internal/infra"
	"botserver/internal/sqlinline"

	"github.com/jackc/pgx/v5"
)

// VideoJobRepositoryPG implements domain.VideoJobRepository on PostgreSQL.
// All state transitions are single-row conditional updates so that a claim is
// durably recorded before any provider call and never spans an external call.
type VideoJobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewVideoJobRepository creates a job repository backed by PostgreSQL.
func NewVideoJobRepository(sql infra.SQLExecutor) *VideoJobRepositoryPG {
	return &VideoJobRepositoryPG{sql: sql}
}

// Create inserts a new job record.
func (r *VideoJobRepositoryPG) Create(ctx context.Context, job *domain.VideoJob) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertVideoJob,
		job.ID,
		job.UserID,
		job.ChatID,
		job.RelatedRequestID,
		job.Provider,
		job.ModelID,
		job.Status,
		job.Prompt,
		nullableBytes(job.InputParams),
		job.TokensCost,
		job.MaxAttempts,
		job.ExpiresAt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *VideoJobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.VideoJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectVideoJob, jobID)
	job, err := scanVideoJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// ListEligible returns jobs in the given status that have not expired,
// oldest first.
func (r *VideoJobRepositoryPG) ListEligible(ctx context.Context, status domain.JobStatus, now time.Time, limit int) ([]domain.VideoJob, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectEligibleJobs, status, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.VideoJob
	for rows.Next() {
		job, err := scanVideoJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// ClaimTransition performs the compare-and-set status move. Zero affected
// rows means the job is no longer in the expected status, reported as
// domain.ErrConflict.
func (r *VideoJobRepositoryPG) ClaimTransition(ctx context.Context, jobID string, from, to domain.JobStatus) (*domain.VideoJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QClaimJobTransition, jobID, from, to)
	job, err := scanVideoJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return job, nil
}

// RecordSubmission stores the provider task id after a successful submit.
func (r *VideoJobRepositoryPG) RecordSubmission(ctx context.Context, jobID, providerTaskID string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QRecordJobSubmission, jobID, providerTaskID)
	return err
}

// MarkCompleted records the terminal success transition.
func (r *VideoJobRepositoryPG) MarkCompleted(ctx context.Context, jobID, resultLocation string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkJobCompleted, jobID, resultLocation)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// MarkFailed records the terminal failure transition.
func (r *VideoJobRepositoryPG) MarkFailed(ctx context.Context, jobID, errorMessage string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkJobFailed, jobID, errorMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// MarkTimeoutWaiting parks a processing job until the next re-poll cycle.
func (r *VideoJobRepositoryPG) MarkTimeoutWaiting(ctx context.Context, jobID string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkJobTimeoutWaiting, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// IncrementAttempt bumps the attempt counter, refusing to pass the bound.
func (r *VideoJobRepositoryPG) IncrementAttempt(ctx context.Context, jobID string) (int, int, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QIncrementJobAttempt, jobID)
	var attempts, maxAttempts int
	if err := row.Scan(&attempts, &maxAttempts); err != nil {
		if infra.IsNoRows(err) {
			return 0, 0, domain.ErrRetryExhausted
		}
		return 0, 0, err
	}
	return attempts, maxAttempts, nil
}

// ExpireStale force-fails all non-terminal jobs past their deadline and
// returns them for notification. Re-running is a no-op.
func (r *VideoJobRepositoryPG) ExpireStale(ctx context.Context, now time.Time, message string) ([]domain.ExpiredJob, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QExpireStaleJobs, now, message)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.ExpiredJob
	for rows.Next() {
		var e domain.ExpiredJob
		if err := rows.Scan(&e.ID, &e.ChatID); err != nil {
			return nil, err
		}
		expired = append(expired, e)
	}
	return expired, rows.Err()
}

// ReclaimStuck recovers processing jobs untouched since cutoff.
func (r *VideoJobRepositoryPG) ReclaimStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QReclaimStuckJobs, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanVideoJob(row pgx.Row) (*domain.VideoJob, error) {
	var job domain.VideoJob
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.ChatID,
		&job.RelatedRequestID,
		&job.Provider,
		&job.ModelID,
		&job.ProviderTaskID,
		&job.Status,
		&job.Prompt,
		&job.InputParams,
		&job.ResultLocation,
		&job.ErrorMessage,
		&job.TokensCost,
		&job.AttemptCount,
		&job.MaxAttempts,
		&job.StartedProcessingAt,
		&job.CompletedAt,
		&job.ExpiresAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.VideoJobRepository = (*VideoJobRepositoryPG)(nil)
