package infra

import (
	"strings"
	"testing"
)

func TestExtractMarker(t *testing.T) {
	query := `
--sql 3f2b8c1a-9d4e-4f6b-8a2c-1e5d7b9f0a3c
SELECT id FROM video_jobs WHERE id = $1
`
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker() error = %v", err)
	}
	if marker != "3f2b8c1a-9d4e-4f6b-8a2c-1e5d7b9f0a3c" {
		t.Fatalf("marker = %q", marker)
	}
	if strings.Contains(trimmed, "--sql") {
		t.Fatal("marker line must be stripped before execution")
	}
	if !strings.Contains(trimmed, "SELECT id FROM video_jobs") {
		t.Fatalf("statement body lost: %q", trimmed)
	}
}

func TestExtractMarkerRejectsUnmarkedQuery(t *testing.T) {
	if _, _, err := extractMarker("SELECT 1"); err == nil {
		t.Fatal("expected error for a query without a marker")
	}
	if _, _, err := extractMarker("--sql not-a-uuid\nSELECT 1"); err == nil {
		t.Fatal("expected error for an invalid marker")
	}
}
