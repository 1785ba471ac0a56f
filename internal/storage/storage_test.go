package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{"plain key", "generated/videos/1/video.mp4", "generated/videos/1/video.mp4", false},
		{"leading slash stripped", "/generated/video.mp4", "generated/video.mp4", false},
		{"dot segments collapsed", "generated/./video.mp4", "generated/video.mp4", false},
		{"traversal rejected", "../../etc/passwd", "", true},
		{"empty rejected", "  ", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sanitizeKey(tc.key)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("sanitizeKey(%q) = %q, want error", tc.key, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("sanitizeKey(%q) error = %v", tc.key, err)
			}
			if got != tc.want {
				t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}

func TestFileStoreWrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	key, err := store.Write(context.Background(), "generated/videos/job-1/video.mp4", []byte("payload"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if key != "generated/videos/job-1/video.mp4" {
		t.Fatalf("key = %q", key)
	}

	data, err := os.ReadFile(filepath.Join(store.basePath, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("stored data = %q", data)
	}
}

func TestMirrorResultRewritesLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video bytes"))
	}))
	defer srv.Close()

	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	m := NewMirror(store, "https://static.example.com/", zerolog.Nop())

	got, err := m.MirrorResult(context.Background(), "job-1", srv.URL+"/artifacts/out.webm?sig=abc")
	if err != nil {
		t.Fatalf("MirrorResult() error = %v", err)
	}
	want := "https://static.example.com/generated/videos/job-1/video.webm"
	if got != want {
		t.Fatalf("location = %q, want %q", got, want)
	}
}

func TestMirrorResultFailsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	m := NewMirror(store, "https://static.example.com", zerolog.Nop())

	if _, err := m.MirrorResult(context.Background(), "job-1", srv.URL+"/gone.mp4"); err == nil {
		t.Fatal("expected error for non-200 download")
	}
}

func TestArtifactExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn/x/video.mp4", ".mp4"},
		{"https://cdn/x/video.webm?sig=1", ".webm"},
		{"https://cdn/x/video.MOV", ".mov"},
		{"https://cdn/x/video", ".mp4"},
		{"https://cdn/x/video.exe", ".mp4"},
	}
	for _, tc := range tests {
		if got := artifactExtension(tc.url); got != tc.want {
			t.Fatalf("artifactExtension(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
