package postgres

import (
	"fmt"

	"github.com/cvenhancer/core/internal/domain"
)

// GenerationRepo persists domain.Generation under the "generations" collection.
type GenerationRepo struct {
	col *Collection[domain.Generation]
}

// NewGenerationRepo constructs a GenerationRepo.
func NewGenerationRepo(pool PgxPool) *GenerationRepo {
	return &GenerationRepo{col: NewCollection[domain.Generation](pool, "generations")}
}

// Upsert implements domain.GenerationRepository.
func (r *GenerationRepo) Upsert(ctx domain.Context, g domain.Generation) error {
	if err := r.col.UpdateOne(ctx, g.JobID, g); err != nil {
		if domain.CodeOf(err) == domain.CodeNotFound {
			return r.col.Insert(ctx, g.JobID, g)
		}
		return fmt.Errorf("generations: upsert: %w", err)
	}
	return nil
}

// FindByJobID implements domain.GenerationRepository.
func (r *GenerationRepo) FindByJobID(ctx domain.Context, jobID string) (domain.Generation, error) {
	return r.col.FindByID(ctx, jobID)
}
