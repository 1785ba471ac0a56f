// Package jobs implements the video job service: validated job creation and
// the state transitions the worker drives jobs through.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"botserver/internal/domain"
	"botserver/internal/infra"
)

// Defaults bound job creation when the caller leaves a knob unset.
type Defaults struct {
	TTL         time.Duration
	MaxAttempts int
}

// Service exposes the job pipeline contract over a VideoJobRepository.
type Service struct {
	repo     domain.VideoJobRepository
	logger   infra.Logger
	defaults Defaults
	now      func() time.Time
}

func NewService(repo domain.VideoJobRepository, logger infra.Logger, defaults Defaults) *Service {
	if defaults.TTL <= 0 {
		defaults.TTL = 30 * time.Minute
	}
	if defaults.MaxAttempts <= 0 {
		defaults.MaxAttempts = 5
	}
	return &Service{
		repo:     repo,
		logger:   logger,
		defaults: defaults,
		now:      time.Now,
	}
}

// Defaults returns the creation-time fallbacks. Intake layers use these to
// fill knobs the caller left unset before calling Create; Create itself
// rejects a non-positive TTL rather than papering over it.
func (s *Service) Defaults() Defaults {
	return s.defaults
}

// CreateParams carries everything needed to enqueue a video generation job.
type CreateParams struct {
	UserID           int64
	ChatID           int64
	RelatedRequestID string
	Provider         string
	ModelID          string
	Prompt           string
	InputParams      []byte
	TokensCost       int
	TTL              time.Duration
	MaxAttempts      int
}

// Create validates the request and inserts a pending job with a fixed expiry
// of now + ttl. The expiry is never recomputed afterwards.
func (s *Service) Create(ctx context.Context, p CreateParams) (*domain.VideoJob, error) {
	if p.TokensCost < 0 {
		return nil, fmt.Errorf("%w: tokens cost must not be negative", domain.ErrValidation)
	}
	if p.TTL <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", domain.ErrValidation)
	}
	if p.UserID == 0 || p.ChatID == 0 {
		return nil, fmt.Errorf("%w: user and chat are required", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Provider) == "" || strings.TrimSpace(p.ModelID) == "" {
		return nil, fmt.Errorf("%w: provider and model are required", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = s.defaults.MaxAttempts
	}

	now := s.now()
	job := &domain.VideoJob{
		ID:               uuid.NewString(),
		UserID:           p.UserID,
		ChatID:           p.ChatID,
		RelatedRequestID: p.RelatedRequestID,
		Provider:         p.Provider,
		ModelID:          p.ModelID,
		Status:           domain.JobStatusPending,
		Prompt:           p.Prompt,
		InputParams:      p.InputParams,
		TokensCost:       p.TokensCost,
		MaxAttempts:      p.MaxAttempts,
		ExpiresAt:        now.Add(p.TTL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("job_id", job.ID).
		Str("provider", job.Provider).
		Str("model", job.ModelID).
		Int("tokens_cost", job.TokensCost).
		Msg("jobs: created")
	return job, nil
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, jobID string) (*domain.VideoJob, error) {
	return s.repo.GetByID(ctx, jobID)
}

// ListEligible returns up to limit non-expired jobs in the given status,
// oldest first.
func (s *Service) ListEligible(ctx context.Context, status domain.JobStatus, limit int) ([]domain.VideoJob, error) {
	return s.repo.ListEligible(ctx, status, s.now(), limit)
}

// Claim atomically transitions a job between statuses. A domain.ErrConflict
// result means another worker holds the job; callers skip it this cycle.
func (s *Service) Claim(ctx context.Context, jobID string, from, to domain.JobStatus) (*domain.VideoJob, error) {
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("%w: transition %s -> %s not allowed", domain.ErrValidation, from, to)
	}
	return s.repo.ClaimTransition(ctx, jobID, from, to)
}

// RecordSubmission stores the provider task id once the provider accepts.
func (s *Service) RecordSubmission(ctx context.Context, jobID, providerTaskID string) error {
	return s.repo.RecordSubmission(ctx, jobID, providerTaskID)
}

// MarkCompleted records terminal success.
func (s *Service) MarkCompleted(ctx context.Context, jobID, resultLocation string) error {
	if strings.TrimSpace(resultLocation) == "" {
		return fmt.Errorf("%w: result location is required", domain.ErrValidation)
	}
	return s.repo.MarkCompleted(ctx, jobID, resultLocation)
}

// MarkFailed records terminal failure.
func (s *Service) MarkFailed(ctx context.Context, jobID, errorMessage string) error {
	return s.repo.MarkFailed(ctx, jobID, errorMessage)
}

// MarkTimeoutWaiting parks a processing job for a later re-poll.
func (s *Service) MarkTimeoutWaiting(ctx context.Context, jobID string) error {
	return s.repo.MarkTimeoutWaiting(ctx, jobID)
}

// IncrementAttempt consumes one retry attempt. domain.ErrRetryExhausted means
// the bound was already reached and the caller must fail the job.
func (s *Service) IncrementAttempt(ctx context.Context, jobID string) (int, int, error) {
	return s.repo.IncrementAttempt(ctx, jobID)
}

// ExpireStale force-fails every non-terminal job whose deadline passed and
// returns the affected jobs for notification. Idempotent.
func (s *Service) ExpireStale(ctx context.Context, now time.Time) ([]domain.ExpiredJob, error) {
	expired, err := s.repo.ExpireStale(ctx, now, domain.ExpiryMessage)
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		s.logger.Info().Int("count", len(expired)).Msg("jobs: expired stale jobs")
	}
	return expired, nil
}

// ReclaimStuck returns processing jobs abandoned before cutoff to the queue.
func (s *Service) ReclaimStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.ReclaimStuck(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Warn().Int64("count", n).Msg("jobs: reclaimed stuck jobs")
	}
	return n, nil
}
