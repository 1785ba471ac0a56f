// Package worker drives pending video jobs through submit, poll and delivery
// against the configured providers. A single polling loop runs all work for a
// cycle to completion, then sleeps; multiple worker processes may run
// concurrently and coordinate only through the jobs service's conditional
// status transitions.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"botserver/internal/domain"
	"botserver/internal/infra"
	"botserver/internal/notify"
	video "botserver/internal/providers/video"
	"botserver/internal/service/jobs"
	"botserver/internal/storage"
)

// Config tunes the polling loop.
type Config struct {
	// PollInterval is the sleep between cycles.
	PollInterval time.Duration
	// CleanupEvery runs the expiry/reclaim pass every Nth cycle so cleanup
	// load stays decoupled from the poll cadence.
	CleanupEvery int
	// ClaimLimit caps fresh pending claims per cycle.
	ClaimLimit int
	// RepollLimit caps timeout_waiting resumptions per cycle.
	RepollLimit int
	// SubmitSlots and RepollSlots bound in-cycle fan-out to the providers.
	SubmitSlots int
	RepollSlots int
	// ProviderCallTimeout bounds one submit or poll network call.
	ProviderCallTimeout time.Duration
	// PollWindow bounds how long one cycle keeps polling a single job before
	// parking it in timeout_waiting. Distinct from the job-level expiry.
	PollWindow time.Duration
	// PollBackoff is the delay between provider polls inside the window.
	PollBackoff time.Duration
	// DeliverTimeout bounds one notifier call.
	DeliverTimeout time.Duration
	// ReclaimGrace is how long a processing job may go untouched before the
	// cleanup pass treats its worker as crashed.
	ReclaimGrace time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.CleanupEvery < 1 {
		c.CleanupEvery = 12
	}
	if c.ClaimLimit <= 0 {
		c.ClaimLimit = 10
	}
	if c.RepollLimit <= 0 {
		c.RepollLimit = 20
	}
	if c.SubmitSlots <= 0 {
		c.SubmitSlots = 4
	}
	if c.RepollSlots <= 0 {
		c.RepollSlots = 8
	}
	if c.ProviderCallTimeout <= 0 {
		c.ProviderCallTimeout = 30 * time.Second
	}
	if c.PollWindow <= 0 {
		c.PollWindow = 45 * time.Second
	}
	if c.PollBackoff <= 0 {
		c.PollBackoff = 5 * time.Second
	}
	if c.DeliverTimeout <= 0 {
		c.DeliverTimeout = 30 * time.Second
	}
	if c.ReclaimGrace <= 0 {
		c.ReclaimGrace = 10 * time.Minute
	}
	return c
}

// Worker is the polling process.
type Worker struct {
	jobs      *jobs.Service
	providers video.Registry
	notifier  notify.Notifier
	mirror    *storage.Mirror
	logger    infra.Logger
	cfg       Config

	now    func() time.Time
	cycles uint64
}

func New(svc *jobs.Service, providers video.Registry, notifier notify.Notifier, mirror *storage.Mirror, logger infra.Logger, cfg Config) *Worker {
	return &Worker{
		jobs:      svc,
		providers: providers,
		notifier:  notifier,
		mirror:    mirror,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// Run executes cycles until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().
		Dur("poll_interval", w.cfg.PollInterval).
		Int("claim_limit", w.cfg.ClaimLimit).
		Int("repoll_limit", w.cfg.RepollLimit).
		Msg("worker: started")

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		w.RunCycle(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle performs one full pass: periodic cleanup, fresh submissions,
// then resumption of parked jobs. A single job's failure never stops the
// cycle; every error is converted into a status transition or a log line.
func (w *Worker) RunCycle(ctx context.Context) {
	if w.cycles%uint64(w.cfg.CleanupEvery) == 0 {
		w.cleanup(ctx)
	}
	w.cycles++

	w.submitPending(ctx)
	w.resumeWaiting(ctx)
}

func (w *Worker) cleanup(ctx context.Context) {
	now := w.now()

	expired, err := w.jobs.ExpireStale(ctx, now)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: expire stale jobs failed")
	}
	for _, e := range expired {
		w.notifyFailure(ctx, e.ChatID, notify.ReasonExpired, "")
	}

	if _, err := w.jobs.ReclaimStuck(ctx, now.Add(-w.cfg.ReclaimGrace)); err != nil {
		w.logger.Error().Err(err).Msg("worker: reclaim stuck jobs failed")
	}
}

func (w *Worker) submitPending(ctx context.Context) {
	batch, err := w.jobs.ListEligible(ctx, domain.JobStatusPending, w.cfg.ClaimLimit)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: list pending jobs failed")
		return
	}
	w.forEach(ctx, batch, w.cfg.SubmitSlots, w.submitOne)
}

func (w *Worker) resumeWaiting(ctx context.Context) {
	batch, err := w.jobs.ListEligible(ctx, domain.JobStatusTimeoutWaiting, w.cfg.RepollLimit)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: list waiting jobs failed")
		return
	}
	w.forEach(ctx, batch, w.cfg.RepollSlots, w.resumeOne)
}

// forEach fans a batch out to fn with at most slots jobs in flight. Jobs are
// started in the order the fetch returned them (oldest first).
func (w *Worker) forEach(ctx context.Context, batch []domain.VideoJob, slots int, fn func(context.Context, domain.VideoJob)) {
	sem := make(chan struct{}, slots)
	var wg sync.WaitGroup
	for _, job := range batch {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(job domain.VideoJob) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, job)
		}(job)
	}
	wg.Wait()
}

// submitOne claims a pending job, submits it to its provider and starts
// polling. The claim is durably recorded before the provider call so a crash
// can never leave two workers driving the same job.
func (w *Worker) submitOne(ctx context.Context, job domain.VideoJob) {
	claimed, err := w.jobs.Claim(ctx, job.ID, domain.JobStatusPending, domain.JobStatusProcessing)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			w.logger.Debug().Str("job_id", job.ID).Msg("worker: pending job claimed elsewhere")
		} else {
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: claim failed")
		}
		return
	}
	job = *claimed

	adapter, ok := w.providers.Resolve(job.Provider)
	if !ok {
		w.failJob(ctx, job, "provider not configured: "+job.Provider, notify.ReasonRejected)
		return
	}

	cctx, cancel := context.WithTimeout(ctx, w.cfg.ProviderCallTimeout)
	taskID, err := adapter.Submit(cctx, video.SubmitRequest{
		JobID:       job.ID,
		ModelID:     job.ModelID,
		Prompt:      job.Prompt,
		InputParams: job.InputParams,
	})
	cancel()
	if err != nil {
		// Submission failure is terminal either way: with no provider task id
		// there is nothing to resume, and resubmitting would risk double
		// billing.
		reason := notify.ReasonUnavailable
		if errors.Is(err, domain.ErrProviderTerminal) {
			reason = notify.ReasonRejected
		}
		w.logger.Warn().Err(err).Str("job_id", job.ID).Str("provider", job.Provider).Msg("worker: submit failed")
		w.failJob(ctx, job, err.Error(), reason)
		return
	}

	if err := w.jobs.RecordSubmission(ctx, job.ID, taskID); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: record submission failed")
	}
	job.ProviderTaskID = taskID
	w.logger.Info().Str("job_id", job.ID).Str("provider", job.Provider).Str("task_id", taskID).Msg("worker: submitted")

	w.pollJob(ctx, job, adapter)
}

// resumeOne claims a parked job and resumes polling the stored provider task.
// The original request is never resubmitted.
func (w *Worker) resumeOne(ctx context.Context, job domain.VideoJob) {
	claimed, err := w.jobs.Claim(ctx, job.ID, domain.JobStatusTimeoutWaiting, domain.JobStatusProcessing)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			w.logger.Debug().Str("job_id", job.ID).Msg("worker: waiting job claimed elsewhere")
		} else {
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: claim failed")
		}
		return
	}
	job = *claimed

	adapter, ok := w.providers.Resolve(job.Provider)
	if !ok {
		w.failJob(ctx, job, "provider not configured: "+job.Provider, notify.ReasonRejected)
		return
	}
	w.pollJob(ctx, job, adapter)
}

// pollJob polls the provider task until it finishes, fails, or the poll
// window closes. A closed window consumes one attempt and parks the job;
// exhausting the attempt budget fails it for good.
func (w *Worker) pollJob(ctx context.Context, job domain.VideoJob, adapter video.Adapter) {
	deadline := w.now().Add(w.cfg.PollWindow)

	for {
		if job.Expired(w.now()) {
			w.failJob(ctx, job, domain.ExpiryMessage, notify.ReasonExpired)
			return
		}

		cctx, cancel := context.WithTimeout(ctx, w.cfg.ProviderCallTimeout)
		res, err := adapter.Poll(cctx, job.ProviderTaskID)
		cancel()

		switch {
		case err != nil && errors.Is(err, domain.ErrProviderTerminal):
			w.failJob(ctx, job, err.Error(), notify.ReasonRejected)
			return
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			// Transient trouble talking to the provider ends this window; the
			// job keeps its task id and is retried next cycle.
			w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("worker: poll failed")
			w.parkJob(ctx, job)
			return
		case res.Status == video.TaskDone:
			w.completeJob(ctx, job, res.ResultLocation)
			return
		case res.Status == video.TaskFailed:
			w.failJob(ctx, job, res.ErrorMessage, notify.ReasonRejected)
			return
		}

		// Still running. Park the job if the next poll would overrun the
		// window; the loop must never stall on one slow job.
		if !w.now().Add(w.cfg.PollBackoff).Before(deadline) {
			w.parkJob(ctx, job)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.PollBackoff):
		}
	}
}

// parkJob consumes one attempt and moves the job to timeout_waiting, or fails
// it when the attempt budget is spent.
func (w *Worker) parkJob(ctx context.Context, job domain.VideoJob) {
	attempts, maxAttempts, err := w.jobs.IncrementAttempt(ctx, job.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRetryExhausted) {
			w.failJob(ctx, job, domain.RetryExhaustedMessage, notify.ReasonExhausted)
			return
		}
		// Leave the job in processing; the reclaim pass recovers it.
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: increment attempt failed")
		return
	}
	if attempts >= maxAttempts {
		w.failJob(ctx, job, domain.RetryExhaustedMessage, notify.ReasonExhausted)
		return
	}
	if err := w.jobs.MarkTimeoutWaiting(ctx, job.ID); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: park failed")
		return
	}
	w.logger.Info().Str("job_id", job.ID).Int("attempt", attempts).Int("max_attempts", maxAttempts).Msg("worker: parked for re-poll")
}

// completeJob records terminal success, then hands the artifact to the
// notifier. The status is durably committed before delivery; a delivery
// failure is logged and never reverts it.
func (w *Worker) completeJob(ctx context.Context, job domain.VideoJob, resultLocation string) {
	if resultLocation == "" {
		w.failJob(ctx, job, "provider reported success without a result", notify.ReasonUnavailable)
		return
	}

	if w.mirror != nil {
		if mirrored, err := w.mirror.MirrorResult(ctx, job.ID, resultLocation); err != nil {
			w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("worker: mirror failed, keeping provider url")
		} else {
			resultLocation = mirrored
		}
	}

	if err := w.jobs.MarkCompleted(ctx, job.ID, resultLocation); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: mark completed failed")
		return
	}
	w.logger.Info().Str("job_id", job.ID).Str("result", resultLocation).Msg("worker: job completed")

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.DeliverTimeout)
	defer cancel()
	if err := w.notifier.Deliver(dctx, job.ChatID, resultLocation, jobLocale(job)); err != nil {
		w.logger.Warn().Err(err).Str("job_id", job.ID).Int64("chat_id", job.ChatID).Msg("worker: delivery failed")
	}
}

// failJob records terminal failure, then notifies the chat with a generic
// reason. The stored message keeps the diagnostic detail for auditing.
func (w *Worker) failJob(ctx context.Context, job domain.VideoJob, message string, reason notify.Reason) {
	if err := w.jobs.MarkFailed(ctx, job.ID, message); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Already terminal, nothing to do.
			return
		}
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: mark failed failed")
		return
	}
	w.logger.Info().Str("job_id", job.ID).Str("reason", string(reason)).Msg("worker: job failed")
	w.notifyFailure(ctx, job.ChatID, reason, jobLocale(job))
}

func (w *Worker) notifyFailure(ctx context.Context, chatID int64, reason notify.Reason, locale string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.DeliverTimeout)
	defer cancel()
	if err := w.notifier.DeliverFailure(dctx, chatID, reason, locale); err != nil {
		w.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("worker: failure notice delivery failed")
	}
}

// jobLocale pulls an optional locale hint out of the job's input parameters.
func jobLocale(job domain.VideoJob) string {
	if len(job.InputParams) == 0 {
		return ""
	}
	var params struct {
		Locale string `json:"locale"`
	}
	if err := json.Unmarshal(job.InputParams, &params); err != nil {
		return ""
	}
	return params.Locale
}
