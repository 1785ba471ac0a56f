package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"botserver/internal/domain"
	"botserver/internal/http/handlers"
	"botserver/internal/http/httpapi"
	"botserver/internal/service/jobs"
)

type fakeJobRepo struct {
	domain.VideoJobRepository
	jobs map[string]*domain.VideoJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*domain.VideoJob)}
}

func (r *fakeJobRepo) Create(ctx context.Context, job *domain.VideoJob) error {
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, jobID string) (*domain.VideoJob, error) {
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

type fakeFlags struct {
	enabled bool
	err     error
}

func (f fakeFlags) Enabled(ctx context.Context, key string, fallback bool) (bool, error) {
	if f.err != nil {
		return fallback, f.err
	}
	return f.enabled, nil
}

func newTestServer(repo *fakeJobRepo, flags fakeFlags) http.Handler {
	svc := jobs.NewService(repo, zerolog.Nop(), jobs.Defaults{TTL: time.Hour, MaxAttempts: 3})
	app := handlers.NewApp(svc, flags, zerolog.Nop())
	return httpapi.NewRouter(app, 100, "")
}

func validBody() string {
	return `{
		"user_id": 42,
		"chat_id": 4242,
		"provider": "kling",
		"model_id": "kling-v1-6",
		"prompt": "a red fox running through snow",
		"tokens_cost": 100,
		"ttl_seconds": 600
	}`
}

func TestVideoJobCreateAccepted(t *testing.T) {
	repo := newFakeJobRepo()
	srv := newTestServer(repo, fakeFlags{enabled: true})

	req := httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader(validBody()))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID == "" {
		t.Fatal("response should carry the job id")
	}
	if resp.Status != string(domain.JobStatusPending) {
		t.Fatalf("status = %q, want pending", resp.Status)
	}
	if _, ok := repo.jobs[resp.JobID]; !ok {
		t.Fatal("job should be persisted")
	}
}

func TestVideoJobCreateOmittedTTLUsesDefault(t *testing.T) {
	repo := newFakeJobRepo()
	srv := newTestServer(repo, fakeFlags{enabled: true})

	body := `{"user_id":42,"chat_id":4242,"provider":"kling","model_id":"kling-v1-6","prompt":"a red fox","tokens_cost":100}`
	req := httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	job, ok := repo.jobs[resp.JobID]
	if !ok {
		t.Fatal("job should be persisted")
	}
	if got := job.ExpiresAt.Sub(job.CreatedAt); got != time.Hour {
		t.Fatalf("expiry window = %v, want the service default of 1h", got)
	}
}

func TestVideoJobCreateZeroTTLRejected(t *testing.T) {
	repo := newFakeJobRepo()
	srv := newTestServer(repo, fakeFlags{enabled: true})

	body := `{"user_id":42,"chat_id":4242,"provider":"kling","model_id":"kling-v1-6","prompt":"a red fox","tokens_cost":100,"ttl_seconds":0}`
	req := httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for an explicit zero ttl", rec.Code)
	}
	if len(repo.jobs) != 0 {
		t.Fatal("nothing should be persisted")
	}
}

func TestVideoJobCreateDisabledQueue(t *testing.T) {
	repo := newFakeJobRepo()
	srv := newTestServer(repo, fakeFlags{enabled: false})

	req := httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader(validBody()))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "queueing_disabled") {
		t.Fatalf("body %s should name the disabled queue", rec.Body.String())
	}
	if len(repo.jobs) != 0 {
		t.Fatal("nothing should be persisted while the queue is disabled")
	}
}

func TestVideoJobCreateBadPayload(t *testing.T) {
	srv := newTestServer(newFakeJobRepo(), fakeFlags{enabled: true})

	req := httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestVideoJobCreateValidationError(t *testing.T) {
	srv := newTestServer(newFakeJobRepo(), fakeFlags{enabled: true})

	req := httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader(`{"user_id":42,"chat_id":4242,"provider":"kling","model_id":"kling-v1-6","prompt":""}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestVideoJobStatusFound(t *testing.T) {
	repo := newFakeJobRepo()
	now := time.Now()
	repo.jobs["job-1"] = &domain.VideoJob{
		ID:             "job-1",
		UserID:         42,
		ChatID:         4242,
		Provider:       "kling",
		ModelID:        "kling-v1-6",
		Status:         domain.JobStatusCompleted,
		ResultLocation: "https://cdn/1.mp4",
		ExpiresAt:      now.Add(time.Hour),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	srv := newTestServer(repo, fakeFlags{enabled: true})

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/job-1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "completed" {
		t.Fatalf("status field = %v, want completed", resp["status"])
	}
	if resp["result_location"] != "https://cdn/1.mp4" {
		t.Fatalf("result_location = %v", resp["result_location"])
	}
}

func TestVideoJobStatusNotFound(t *testing.T) {
	srv := newTestServer(newFakeJobRepo(), fakeFlags{enabled: true})

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/missing", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStaticServesMirroredArtifacts(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "generated", "videos", "job-1")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "video.mp4"), []byte("video bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc := jobs.NewService(newFakeJobRepo(), zerolog.Nop(), jobs.Defaults{})
	app := handlers.NewApp(svc, fakeFlags{enabled: true}, zerolog.Nop())
	srv := httpapi.NewRouter(app, 100, dir)

	req := httptest.NewRequest(http.MethodGet, "/static/generated/videos/job-1/video.mp4", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "video bytes" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestStaticUnmountedWithoutStoragePath(t *testing.T) {
	srv := newTestServer(newFakeJobRepo(), fakeFlags{enabled: true})

	req := httptest.NewRequest(http.MethodGet, "/static/anything.mp4", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when no storage path is configured", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(newFakeJobRepo(), fakeFlags{enabled: true})

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
