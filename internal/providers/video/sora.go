package video

import (
	"context"
	"fmt"

	"botserver/internal/domain"
)

// Sora drives the OpenAI video generation API.
type Sora struct {
	client *Client
}

func NewSora(client *Client) *Sora {
	return &Sora{client: client}
}

func (s *Sora) Name() string { return "sora" }

type soraSubmitRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	// Client reference used for idempotent resubmits.
	Metadata map[string]string `json:"metadata,omitempty"`
}

type soraTask struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output struct {
		URL string `json:"url"`
	} `json:"output"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Sora) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	var out soraTask
	payload := soraSubmitRequest{
		Model:    req.ModelID,
		Prompt:   req.Prompt,
		Metadata: map[string]string{"job_id": req.JobID},
	}
	if err := s.client.PostJSON(ctx, "/videos", payload, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: sora returned no task id", domain.ErrProviderTransient)
	}
	return out.ID, nil
}

func (s *Sora) Poll(ctx context.Context, providerTaskID string) (PollResult, error) {
	var out soraTask
	if err := s.client.GetJSON(ctx, "/videos/"+providerTaskID, &out); err != nil {
		return PollResult{}, err
	}
	switch out.Status {
	case "completed":
		return PollResult{Status: TaskDone, ResultLocation: out.Output.URL}, nil
	case "failed", "cancelled":
		return PollResult{Status: TaskFailed, ErrorMessage: out.Error.Message}, nil
	default:
		// queued / in_progress
		return PollResult{Status: TaskRunning}, nil
	}
}

var _ Adapter = (*Sora)(nil)
