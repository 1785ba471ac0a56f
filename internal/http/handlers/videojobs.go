package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"botserver/internal/adapter/repo"
	"botserver/internal/domain"
	"botserver/internal/service/jobs"
)

type videoJobRequest struct {
	UserID           int64           `json:"user_id"`
	ChatID           int64           `json:"chat_id"`
	Provider         string          `json:"provider"`
	ModelID          string          `json:"model_id"`
	Prompt           string          `json:"prompt"`
	InputParams      json.RawMessage `json:"input_params"`
	TokensCost       int             `json:"tokens_cost"`
	// Optional; omitting it applies the service default, while an explicit
	// non-positive value is a validation error.
	TTLSeconds       *int   `json:"ttl_seconds"`
	RelatedRequestID string `json:"related_request_id"`
}

type videoJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// VideoJobCreate enqueues a video generation job. The bot front-end calls
// this after the token budget check; when the async queue flag is off it gets
// a conflict and falls back to its synchronous path.
func (a *App) VideoJobCreate(w http.ResponseWriter, r *http.Request) {
	enabled, err := a.Flags.Enabled(r.Context(), repo.FlagVideoAsyncQueue, true)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: feature flag lookup failed")
	}
	if !enabled {
		a.error(w, http.StatusConflict, "queueing_disabled", "async video queue is disabled")
		return
	}

	var req videoJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	ttl := a.Jobs.Defaults().TTL
	if req.TTLSeconds != nil {
		ttl = time.Duration(*req.TTLSeconds) * time.Second
	}

	job, err := a.Jobs.Create(r.Context(), jobs.CreateParams{
		UserID:           req.UserID,
		ChatID:           req.ChatID,
		RelatedRequestID: req.RelatedRequestID,
		Provider:         req.Provider,
		ModelID:          req.ModelID,
		Prompt:           req.Prompt,
		InputParams:      req.InputParams,
		TokensCost:       req.TokensCost,
		TTL:              ttl,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: enqueue video job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue video job")
		return
	}

	a.json(w, http.StatusAccepted, videoJobResponse{JobID: job.ID, Status: string(job.Status)})
}

// VideoJobStatus returns a status projection of a job.
func (a *App) VideoJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}

	job, err := a.Jobs.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("handlers: job lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"id":              job.ID,
		"user_id":         job.UserID,
		"chat_id":         job.ChatID,
		"provider":        job.Provider,
		"model_id":        job.ModelID,
		"status":          job.Status,
		"result_location": job.ResultLocation,
		"error_message":   job.ErrorMessage,
		"tokens_cost":     job.TokensCost,
		"attempt_count":   job.AttemptCount,
		"max_attempts":    job.MaxAttempts,
		"expires_at":      job.ExpiresAt,
		"created_at":      job.CreatedAt,
		"updated_at":      job.UpdatedAt,
	})
}
