package video

import (
	"context"
	"fmt"

	"botserver/internal/domain"
)

// Veo drives Google's Veo long-running video generation operations.
type Veo struct {
	client *Client
}

func NewVeo(client *Client) *Veo {
	return &Veo{client: client}
}

func (v *Veo) Name() string { return "veo" }

type veoSubmitRequest struct {
	Instances []veoInstance `json:"instances"`
}

type veoInstance struct {
	Prompt string `json:"prompt"`
}

type veoOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Response struct {
		Videos []struct {
			URI string `json:"uri"`
		} `json:"videos"`
	} `json:"response"`
}

func (v *Veo) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	var out veoOperation
	payload := veoSubmitRequest{Instances: []veoInstance{{Prompt: req.Prompt}}}
	path := "/models/" + req.ModelID + ":predictLongRunning"
	if err := v.client.PostJSON(ctx, path, payload, &out); err != nil {
		return "", err
	}
	if out.Name == "" {
		return "", fmt.Errorf("%w: veo returned no operation name", domain.ErrProviderTransient)
	}
	return out.Name, nil
}

// Poll reads the long-running operation state. The operation name returned by
// Submit is the polling key.
func (v *Veo) Poll(ctx context.Context, providerTaskID string) (PollResult, error) {
	var out veoOperation
	if err := v.client.GetJSON(ctx, "/"+providerTaskID, &out); err != nil {
		return PollResult{}, err
	}
	if !out.Done {
		return PollResult{Status: TaskRunning}, nil
	}
	if out.Error.Message != "" {
		return PollResult{Status: TaskFailed, ErrorMessage: out.Error.Message}, nil
	}
	res := PollResult{Status: TaskDone}
	if len(out.Response.Videos) > 0 {
		res.ResultLocation = out.Response.Videos[0].URI
	}
	return res, nil
}

var _ Adapter = (*Veo)(nil)
