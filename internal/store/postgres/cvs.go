package postgres

import (
	"fmt"
	"time"

	"github.com/cvenhancer/core/internal/domain"
)

// CVRepo persists domain.CV under the "cvs" collection.
type CVRepo struct {
	col  *Collection[domain.CV]
	pool PgxPool
}

// NewCVRepo constructs a CVRepo.
func NewCVRepo(pool PgxPool) *CVRepo {
	return &CVRepo{col: NewCollection[domain.CV](pool, "cvs"), pool: pool}
}

// Create implements domain.CVRepository.
func (r *CVRepo) Create(ctx domain.Context, cv domain.CV) (string, error) {
	if err := r.col.Insert(ctx, cv.ID, cv); err != nil {
		return "", err
	}
	return cv.ID, nil
}

// FindByID implements domain.CVRepository.
func (r *CVRepo) FindByID(ctx domain.Context, id string) (domain.CV, error) {
	return r.col.FindByID(ctx, id)
}

// FindByUser implements domain.CVRepository.
func (r *CVRepo) FindByUser(ctx domain.Context, userID string, limit, offset int) ([]domain.CV, error) {
	return r.col.Find(ctx, map[string]any{"userId": userID}, FindOptions{
		SortBy: "doc->>'updatedAt'", Desc: true, Limit: limit, Skip: offset,
	})
}

// Update implements domain.CVRepository.
func (r *CVRepo) Update(ctx domain.Context, cv domain.CV) error {
	return r.col.UpdateOne(ctx, cv.ID, cv)
}

// SetActiveVersion flips the CV's activeVersionId pointer, the one field
// version activation (C7) mutates without touching the rest of the document.
func (r *CVRepo) SetActiveVersion(ctx domain.Context, cvID, versionID string) error {
	q := `UPDATE cvs SET doc = jsonb_set(doc, '{activeVersionId}', to_jsonb($2::text)), updated_at=$3 WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, cvID, versionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cvs: set_active_version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("cv")
	}
	return nil
}

// Delete implements domain.CVRepository.
func (r *CVRepo) Delete(ctx domain.Context, id string) error {
	return r.col.Delete(ctx, id)
}
