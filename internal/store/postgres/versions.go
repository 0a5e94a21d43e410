package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cvenhancer/core/internal/domain"
)

// VersionRepo persists domain.CVVersion under the "cv_versions" collection.
type VersionRepo struct {
	col  *Collection[domain.CVVersion]
	pool PgxPool
}

// NewVersionRepo constructs a VersionRepo.
func NewVersionRepo(pool PgxPool) *VersionRepo {
	return &VersionRepo{col: NewCollection[domain.CVVersion](pool, "cv_versions"), pool: pool}
}

// Create implements domain.VersionRepository. The cv_versions_cv_version_unique
// index enforces (cvId, versionNumber) uniqueness at the store level.
func (r *VersionRepo) Create(ctx domain.Context, v domain.CVVersion) (string, error) {
	if err := r.col.Insert(ctx, v.ID, v); err != nil {
		return "", fmt.Errorf("cv_versions: create: %w", err)
	}
	return v.ID, nil
}

// FindByID implements domain.VersionRepository.
func (r *VersionRepo) FindByID(ctx domain.Context, id string) (domain.CVVersion, error) {
	return r.col.FindByID(ctx, id)
}

// FindByCV implements domain.VersionRepository.
func (r *VersionRepo) FindByCV(ctx domain.Context, cvID string) ([]domain.CVVersion, error) {
	return r.col.Find(ctx, map[string]any{"cvId": cvID}, FindOptions{
		SortBy: "(doc->>'versionNumber')::int", Desc: true,
	})
}

// NextVersionNumber implements domain.VersionRepository.
func (r *VersionRepo) NextVersionNumber(ctx domain.Context, cvID string) (int, error) {
	versions, err := r.FindByCV(ctx, cvID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, v := range versions {
		if v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max + 1, nil
}

// FindByContentHash implements domain.VersionRepository, used by the
// optimization/parsing processors to dedupe identical content rather than
// stamping a new version every run (§4.C7).
func (r *VersionRepo) FindByContentHash(ctx domain.Context, cvID string, hash string) (domain.CVVersion, error) {
	return r.col.FindOne(ctx, map[string]any{"cvId": cvID, "contentHash": hash})
}

// CreateAndActivate implements §4.C7's newVersion+activate atomic pair in
// one transaction: it inserts v, flips IsActive off on every other version
// of v.CVID, and repoints the parent CV's activeVersionId and content at v —
// so a reader never observes a CV whose active content and activeVersionId
// disagree.
func (r *VersionRepo) CreateAndActivate(ctx domain.Context, v domain.CVVersion) (domain.CVVersion, error) {
	v.IsActive = true
	return v, WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("cv_versions: marshal: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO cv_versions (id, doc, created_at, updated_at) VALUES ($1, $2, now(), now())
			 ON CONFLICT (id) DO UPDATE SET doc = $2, updated_at = now()`,
			v.ID, raw,
		); err != nil {
			return fmt.Errorf("cv_versions: insert: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE cv_versions SET doc = jsonb_set(doc, '{isActive}', 'false'::jsonb), updated_at = now()
			 WHERE doc->>'cvId' = $1 AND id != $2 AND (doc->>'isActive')::bool = true`,
			v.CVID, v.ID,
		); err != nil {
			return fmt.Errorf("cv_versions: deactivate siblings: %w", err)
		}

		contentRaw, err := json.Marshal(v.Content)
		if err != nil {
			return fmt.Errorf("cvs: marshal content: %w", err)
		}
		patch, err := json.Marshal(map[string]any{
			"activeVersionId": v.ID,
			"content":         json.RawMessage(contentRaw),
			"updatedAt":       time.Now(),
		})
		if err != nil {
			return fmt.Errorf("cvs: marshal patch: %w", err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE cvs SET doc = doc || $2::jsonb, updated_at = now() WHERE id = $1`,
			v.CVID, patch,
		)
		if err != nil {
			return fmt.Errorf("cvs: activate version: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound("cv")
		}
		return nil
	})
}
