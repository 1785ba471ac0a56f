// Package video defines the uniform submit/poll contract the worker uses to
// talk to third-party video generation providers, plus the adapters for the
// providers the bot resells.
package video

import (
	"context"
	"encoding/json"
	"strings"
)

// TaskStatus is the normalized provider-side task state.
type TaskStatus string

const (
	TaskRunning TaskStatus = "running"
	TaskDone    TaskStatus = "done"
	TaskFailed  TaskStatus = "failed"
)

// SubmitRequest carries a generation request to a provider. JobID doubles as
// the idempotency key so a repeated submit never double-bills.
type SubmitRequest struct {
	JobID       string
	ModelID     string
	Prompt      string
	InputParams json.RawMessage
}

// PollResult is the normalized answer to a poll call.
type PollResult struct {
	Status         TaskStatus
	ResultLocation string
	ErrorMessage   string
}

// Adapter is the uniform provider contract. Both calls are safe to retry
// with the same identifiers.
type Adapter interface {
	Name() string
	Submit(ctx context.Context, req SubmitRequest) (providerTaskID string, err error)
	Poll(ctx context.Context, providerTaskID string) (PollResult, error)
}

// Registry maps provider names to adapters.
type Registry map[string]Adapter

// Resolve looks up an adapter by provider name.
func (r Registry) Resolve(provider string) (Adapter, bool) {
	a, ok := r[strings.ToLower(strings.TrimSpace(provider))]
	return a, ok
}
