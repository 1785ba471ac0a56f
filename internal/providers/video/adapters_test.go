package video

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"botserver/internal/domain"
)

func TestKlingSubmit(t *testing.T) {
	var gotPayload klingSubmitRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/text2video" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"code":0,"data":{"task_id":"kt-1","task_status":"submitted"}}`))
	})
	k := NewKling(c)

	taskID, err := k.Submit(context.Background(), SubmitRequest{
		JobID:   "job-1",
		ModelID: "kling-v1-6",
		Prompt:  "a red fox",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if taskID != "kt-1" {
		t.Fatalf("taskID = %q, want kt-1", taskID)
	}
	if gotPayload.ExternalTaskID != "job-1" {
		t.Fatalf("external task id = %q, want the job id", gotPayload.ExternalTaskID)
	}
}

func TestKlingSubmitBusinessErrorIsTerminal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":1201,"message":"insufficient balance"}`))
	})
	k := NewKling(c)
	if _, err := k.Submit(context.Background(), SubmitRequest{Prompt: "x"}); !errors.Is(err, domain.ErrProviderTerminal) {
		t.Fatalf("Submit() error = %v, want ErrProviderTerminal", err)
	}
}

func TestKlingPollStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		want PollResult
	}{
		{
			"submitted maps to running",
			`{"code":0,"data":{"task_id":"kt-1","task_status":"submitted"}}`,
			PollResult{Status: TaskRunning},
		},
		{
			"processing maps to running",
			`{"code":0,"data":{"task_id":"kt-1","task_status":"processing"}}`,
			PollResult{Status: TaskRunning},
		},
		{
			"succeed carries the video url",
			`{"code":0,"data":{"task_id":"kt-1","task_status":"succeed","task_result":{"videos":[{"url":"https://cdn/1.mp4"}]}}}`,
			PollResult{Status: TaskDone, ResultLocation: "https://cdn/1.mp4"},
		},
		{
			"failed carries the task message",
			`{"code":0,"data":{"task_id":"kt-1","task_status":"failed","task_status_msg":"content blocked"}}`,
			PollResult{Status: TaskFailed, ErrorMessage: "content blocked"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/videos/text2video/kt-1" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Write([]byte(tc.body))
			})
			got, err := NewKling(c).Poll(context.Background(), "kt-1")
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("Poll() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSoraSubmitSendsJobIDMetadata(t *testing.T) {
	var gotPayload soraSubmitRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"id":"st-1","status":"queued"}`))
	})
	taskID, err := NewSora(c).Submit(context.Background(), SubmitRequest{JobID: "job-2", ModelID: "sora-2", Prompt: "x"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if taskID != "st-1" {
		t.Fatalf("taskID = %q, want st-1", taskID)
	}
	if gotPayload.Metadata["job_id"] != "job-2" {
		t.Fatalf("metadata = %v, want job_id set", gotPayload.Metadata)
	}
}

func TestSoraPollStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		want PollResult
	}{
		{"queued maps to running", `{"id":"st-1","status":"queued"}`, PollResult{Status: TaskRunning}},
		{"in_progress maps to running", `{"id":"st-1","status":"in_progress"}`, PollResult{Status: TaskRunning}},
		{"completed carries output url", `{"id":"st-1","status":"completed","output":{"url":"https://cdn/2.mp4"}}`, PollResult{Status: TaskDone, ResultLocation: "https://cdn/2.mp4"}},
		{"failed carries error message", `{"id":"st-1","status":"failed","error":{"message":"moderation"}}`, PollResult{Status: TaskFailed, ErrorMessage: "moderation"}},
		{"cancelled maps to failed", `{"id":"st-1","status":"cancelled"}`, PollResult{Status: TaskFailed}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			got, err := NewSora(c).Poll(context.Background(), "st-1")
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("Poll() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestVeoSubmitReturnsOperationName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/veo-3:predictLongRunning" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"name":"operations/op-7","done":false}`))
	})
	taskID, err := NewVeo(c).Submit(context.Background(), SubmitRequest{ModelID: "veo-3", Prompt: "x"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if taskID != "operations/op-7" {
		t.Fatalf("taskID = %q, want the operation name", taskID)
	}
}

func TestVeoPollStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		want PollResult
	}{
		{"not done maps to running", `{"name":"operations/op-7","done":false}`, PollResult{Status: TaskRunning}},
		{"done with videos succeeds", `{"name":"operations/op-7","done":true,"response":{"videos":[{"uri":"gs://bucket/3.mp4"}]}}`, PollResult{Status: TaskDone, ResultLocation: "gs://bucket/3.mp4"}},
		{"done with error fails", `{"name":"operations/op-7","done":true,"error":{"message":"quota exceeded"}}`, PollResult{Status: TaskFailed, ErrorMessage: "quota exceeded"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			got, err := NewVeo(c).Poll(context.Background(), "operations/op-7")
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("Poll() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRegistryResolveNormalizesName(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	c, _ := NewClient(Options{BaseURL: srv.URL})
	r := Registry{"kling": NewKling(c)}

	if _, ok := r.Resolve(" Kling "); !ok {
		t.Fatal("resolve should trim and lowercase the provider name")
	}
	if _, ok := r.Resolve("unknown"); ok {
		t.Fatal("unknown provider should not resolve")
	}
}
