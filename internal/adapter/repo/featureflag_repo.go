package repo

import (
	"context"

	"botserver/internal/domain"
	"botserver/internal/infra"
	"botserver/internal/sqlinline"
)

// FlagVideoAsyncQueue gates the asynchronous video pipeline at intake.
const FlagVideoAsyncQueue = "video_async_queue"

// FeatureFlagRepositoryPG reads boolean keyed settings from PostgreSQL.
type FeatureFlagRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewFeatureFlagRepository(sql infra.SQLExecutor) *FeatureFlagRepositoryPG {
	return &FeatureFlagRepositoryPG{sql: sql}
}

// Enabled returns the stored flag value, or fallback when the key is absent.
func (r *FeatureFlagRepositoryPG) Enabled(ctx context.Context, key string, fallback bool) (bool, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectFeatureFlag, key)
	var enabled bool
	if err := row.Scan(&enabled); err != nil {
		if infra.IsNoRows(err) {
			return fallback, nil
		}
		return fallback, err
	}
	return enabled, nil
}

var _ domain.FeatureFlagRepository = (*FeatureFlagRepositoryPG)(nil)
