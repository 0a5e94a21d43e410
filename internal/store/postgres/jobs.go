package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cvenhancer/core/internal/domain"
)

// JobRepo persists domain.Job under the "jobs" collection.
type JobRepo struct {
	col  *Collection[domain.Job]
	pool PgxPool
}

// NewJobRepo constructs a JobRepo.
func NewJobRepo(pool PgxPool) *JobRepo {
	return &JobRepo{col: NewCollection[domain.Job](pool, "jobs"), pool: pool}
}

// Create implements domain.JobRepository.
func (r *JobRepo) Create(ctx domain.Context, j domain.Job) (string, error) {
	if err := r.col.Insert(ctx, j.ID, j); err != nil {
		return "", fmt.Errorf("jobs: create: %w", err)
	}
	return j.ID, nil
}

// FindByID implements domain.JobRepository.
func (r *JobRepo) FindByID(ctx domain.Context, id string) (domain.Job, error) {
	return r.col.FindByID(ctx, id)
}

// FindByDedupKey implements domain.JobRepository, letting Enqueue refuse to
// create a duplicate in-flight job for the same dedup key (§4.C4).
func (r *JobRepo) FindByDedupKey(ctx domain.Context, dedupKey string) (domain.Job, error) {
	return r.col.FindOne(ctx, map[string]any{"dedupKey": dedupKey})
}

// Update implements domain.JobRepository.
func (r *JobRepo) Update(ctx domain.Context, j domain.Job) error {
	return r.col.UpdateOne(ctx, j.ID, j)
}

// AtomicFindAndModify leases the next ready job on queue: highest priority
// first, ties broken by queuedAt, skipping rows already locked by another
// worker (§4.C4's priority-queue + at-least-once-lease contract).
func (r *JobRepo) AtomicFindAndModify(ctx domain.Context, queue domain.QueueName, now time.Time) (domain.Job, bool, error) {
	var result domain.Job
	var found bool

	err := WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		q := `SELECT id, doc FROM jobs
			WHERE doc @> $1
			ORDER BY (doc->>'priority')::int DESC, doc->>'queuedAt' ASC
			LIMIT 1 FOR UPDATE SKIP LOCKED`
		filter := map[string]any{"type": string(queue), "status": string(domain.JobPending)}
		raw, err := json.Marshal(filter)
		if err != nil {
			return err
		}
		row := tx.QueryRow(ctx, q, raw)
		var id string
		var docRaw []byte
		if err := row.Scan(&id, &docRaw); err != nil {
			if err == pgx.ErrNoRows {
				return nil
			}
			return err
		}
		var j domain.Job
		if err := json.Unmarshal(docRaw, &j); err != nil {
			return err
		}
		j.Status = domain.JobProcessing
		j.StartedAt = now
		j.Attempts = append(j.Attempts, domain.JobAttempt{
			AttemptNumber: len(j.Attempts) + 1,
			StartedAt:     now,
		})
		newRaw, err := json.Marshal(j)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE jobs SET doc=$2, updated_at=$3 WHERE id=$1`, id, newRaw, now); err != nil {
			return err
		}
		result = j
		found = true
		return nil
	})
	if err != nil {
		return domain.Job{}, false, fmt.Errorf("jobs: atomic_find_and_modify: %w", err)
	}
	return result, found, nil
}

// CountByStatus implements domain.JobRepository, used for quota enforcement
// ("N jobs currently processing for this user").
func (r *JobRepo) CountByStatus(ctx domain.Context, userID string, status domain.JobStatus) (int, error) {
	return r.col.CountDocuments(ctx, map[string]any{"userId": userID, "status": string(status)})
}

// FindByUser implements domain.JobRepository's job.list surface: newest
// first, optionally narrowed by type and/or status.
func (r *JobRepo) FindByUser(ctx domain.Context, userID string, typ domain.QueueName, status domain.JobStatus, limit, offset int) ([]domain.Job, error) {
	filter := map[string]any{"userId": userID}
	if typ != "" {
		filter["type"] = string(typ)
	}
	if status != "" {
		filter["status"] = string(status)
	}
	return r.col.Find(ctx, filter, FindOptions{SortBy: "doc->>'queuedAt'", Desc: true, Limit: limit, Skip: offset})
}
