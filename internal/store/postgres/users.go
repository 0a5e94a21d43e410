package postgres

import (
	"fmt"
	"time"

	"github.com/cvenhancer/core/internal/domain"
)

// UserRepo persists domain.User under the "users" collection.
type UserRepo struct {
	col  *Collection[domain.User]
	pool PgxPool
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(pool PgxPool) *UserRepo {
	return &UserRepo{col: NewCollection[domain.User](pool, "users"), pool: pool}
}

// FindByID implements domain.UserRepository.
func (r *UserRepo) FindByID(ctx domain.Context, id string) (domain.User, error) {
	return r.col.FindByID(ctx, id)
}

// IncrementUsage atomically bumps a single usage counter field, the
// operation quota enforcement relies on to avoid read-modify-write races
// across concurrent job submissions for the same user.
func (r *UserRepo) IncrementUsage(ctx domain.Context, id string, field string, delta int) error {
	path := fmt.Sprintf("{usage,%s}", field)
	q := `UPDATE users SET doc = jsonb_set(
		doc, $2::text[],
		to_jsonb(coalesce((doc#>>$2)::int, 0) + $3::int)
	), updated_at=$4 WHERE id=$1`
	tag, err := r.pool.Exec(ctx, q, id, path, delta, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("users: increment_usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("user")
	}
	return nil
}

// ResetUsageIfDue zeroes usage counters and sets resetAt to one month after
// now when the stored resetAt has passed, enforcing the monthly-ceiling reset
// spec §3 describes without requiring a separate scheduled job.
func (r *UserRepo) ResetUsageIfDue(ctx domain.Context, id string, now time.Time) error {
	u, err := r.col.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Usage.ResetAt.After(now) {
		return nil
	}
	u.Usage = domain.UsageCounters{ResetAt: now.AddDate(0, 1, 0)}
	return r.col.UpdateOne(ctx, id, u)
}

// Create inserts a brand-new user row (not part of the port, but needed by
// seeding/test fixtures and the auth-provisioning hook).
func (r *UserRepo) Create(ctx domain.Context, u domain.User) error {
	return r.col.Insert(ctx, u.ID, u)
}
