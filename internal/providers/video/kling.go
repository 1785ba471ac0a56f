package video

import (
	"context"
	"encoding/json"
	"fmt"

	"botserver/internal/domain"
)

// Kling drives the Kling text-to-video API.
type Kling struct {
	client *Client
}

func NewKling(client *Client) *Kling {
	return &Kling{client: client}
}

func (k *Kling) Name() string { return "kling" }

type klingSubmitRequest struct {
	Model          string          `json:"model_name"`
	Prompt         string          `json:"prompt"`
	ExternalTaskID string          `json:"external_task_id"`
	Extra          json.RawMessage `json:"extra,omitempty"`
}

type klingEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
		TaskMsg    string `json:"task_status_msg"`
		TaskResult struct {
			Videos []struct {
				URL string `json:"url"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

func (k *Kling) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	var out klingEnvelope
	payload := klingSubmitRequest{
		Model:          req.ModelID,
		Prompt:         req.Prompt,
		ExternalTaskID: req.JobID,
		Extra:          req.InputParams,
	}
	if err := k.client.PostJSON(ctx, "/videos/text2video", payload, &out); err != nil {
		return "", err
	}
	if out.Code != 0 {
		return "", fmt.Errorf("%w: kling code %d: %s", domain.ErrProviderTerminal, out.Code, out.Message)
	}
	if out.Data.TaskID == "" {
		return "", fmt.Errorf("%w: kling returned no task id", domain.ErrProviderTransient)
	}
	return out.Data.TaskID, nil
}

func (k *Kling) Poll(ctx context.Context, providerTaskID string) (PollResult, error) {
	var out klingEnvelope
	if err := k.client.GetJSON(ctx, "/videos/text2video/"+providerTaskID, &out); err != nil {
		return PollResult{}, err
	}
	switch out.Data.TaskStatus {
	case "succeed":
		res := PollResult{Status: TaskDone}
		if len(out.Data.TaskResult.Videos) > 0 {
			res.ResultLocation = out.Data.TaskResult.Videos[0].URL
		}
		return res, nil
	case "failed":
		return PollResult{Status: TaskFailed, ErrorMessage: out.Data.TaskMsg}, nil
	default:
		// submitted / processing
		return PollResult{Status: TaskRunning}, nil
	}
}

var _ Adapter = (*Kling)(nil)
