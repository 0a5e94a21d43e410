package postgres

import (
	"fmt"

	"github.com/cvenhancer/core/internal/domain"
)

// ATSRepo persists domain.AtsAnalysis under the "ats_analyses" collection.
type ATSRepo struct {
	col *Collection[domain.AtsAnalysis]
}

// NewATSRepo constructs an ATSRepo.
func NewATSRepo(pool PgxPool) *ATSRepo {
	return &ATSRepo{col: NewCollection[domain.AtsAnalysis](pool, "ats_analyses")}
}

// Upsert implements domain.ATSRepository.
func (r *ATSRepo) Upsert(ctx domain.Context, a domain.AtsAnalysis) error {
	if err := r.col.UpdateOne(ctx, a.JobID, a); err != nil {
		if domain.CodeOf(err) == domain.CodeNotFound {
			return r.col.Insert(ctx, a.JobID, a)
		}
		return fmt.Errorf("ats_analyses: upsert: %w", err)
	}
	return nil
}

// FindByJobID implements domain.ATSRepository.
func (r *ATSRepo) FindByJobID(ctx domain.Context, jobID string) (domain.AtsAnalysis, error) {
	return r.col.FindByID(ctx, jobID)
}
