package postgres

import (
	"context"
	"fmt"
)

// collections lists every JSONB-backed table the core reads and writes.
// Each gets a GIN index on doc for the `@>` containment queries Find and
// AtomicFindAndModify rely on.
var collections = []string{
	"users", "cvs", "cv_versions", "jobs", "generations",
	"ats_analyses", "parsing_jobs", "webhooks", "webhook_deliveries",
}

const tableDDL = `
CREATE TABLE IF NOT EXISTS %s (
	id text PRIMARY KEY,
	doc jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS %s_doc_gin ON %s USING GIN (doc jsonb_path_ops);
`

// uniqueDDL enforces the store-level uniqueness constraints spec'd for C2:
// Job.id (primary key above already covers this) and
// (CVVersion.cvId, versionNumber).
const uniqueDDL = `
CREATE UNIQUE INDEX IF NOT EXISTS cv_versions_cv_version_unique
	ON cv_versions (((doc->>'cvId')), ((doc->>'versionNumber')::int));
`

// Migrate creates every collection table and its indexes if absent. It is
// intentionally additive and idempotent so it is safe to run on every
// process start rather than requiring a separate migration tool.
func Migrate(ctx context.Context, pool PgxPool) error {
	for _, tbl := range collections {
		ddl := fmt.Sprintf(tableDDL, tbl, tbl, tbl)
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("migrate %s: %w", tbl, err)
		}
	}
	if _, err := pool.Exec(ctx, uniqueDDL); err != nil {
		return fmt.Errorf("migrate: unique index: %w", err)
	}
	return nil
}
