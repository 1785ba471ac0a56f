package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"botserver/internal/infra"
)

// Max artifact size accepted from a provider; anything larger is served from
// the provider URL instead.
const maxArtifactBytes = 512 << 20

// Mirror downloads a finished artifact from the provider and rewrites its
// location onto the reseller's own storage. Mirror failures are not fatal:
// callers keep the provider URL.
type Mirror struct {
	store   *FileStore
	baseURL string
	client  *http.Client
	logger  infra.Logger
}

func NewMirror(store *FileStore, baseURL string, logger infra.Logger) *Mirror {
	return &Mirror{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Minute},
		logger:  logger,
	}
}

// MirrorResult fetches sourceURL, stores it under the job's key and returns
// the public URL of the stored copy.
func (m *Mirror) MirrorResult(ctx context.Context, jobID, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("storage: build download request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: download artifact: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("storage: download artifact: http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
	if err != nil {
		return "", fmt.Errorf("storage: read artifact: %w", err)
	}
	if len(data) > maxArtifactBytes {
		return "", fmt.Errorf("storage: artifact exceeds %d bytes", maxArtifactBytes)
	}

	key := fmt.Sprintf("generated/videos/%s/video%s", jobID, artifactExtension(sourceURL))
	savedKey, err := m.store.Write(ctx, key, data)
	if err != nil {
		return "", err
	}
	m.logger.Debug().Str("job_id", jobID).Str("key", savedKey).Msg("storage: mirrored artifact")
	return m.baseURL + "/" + savedKey, nil
}

func artifactExtension(sourceURL string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(sourceURL, "?", 2)[0]))
	switch ext {
	case ".mp4", ".webm", ".mov":
		return ext
	default:
		return ".mp4"
	}
}
