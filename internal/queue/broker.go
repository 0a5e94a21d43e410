// Package queue implements the C4 job engine: a Redis-backed broker with
// Lua-scripted atomic lease/ack/nack, layered over the C2 Postgres job
// repository which remains the system of record for job state.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cvenhancer/core/internal/domain"
)

// Broker implements domain.Queue on top of Redis sorted sets: one
// "pending:<queue>" ZSET scored by queuedAtMillis - priority*1e15 (so
// ZPOPMIN pops the highest priority first, ties broken by earliest enqueue),
// and one "processing:<queue>" ZSET scored by lease expiry, enabling a
// reaper to requeue jobs whose worker died mid-lease.
type Broker struct {
	rdb            *redis.Client
	leaseScript    *redis.Script
	ackScript      *redis.Script
	nackScript     *redis.Script
	visibilityTime time.Duration
}

// NewBroker builds a Broker. visibilityTimeout bounds how long a leased job
// may run before the reaper considers its worker dead and requeues it.
func NewBroker(rdb *redis.Client, visibilityTimeout time.Duration) *Broker {
	return &Broker{
		rdb:            rdb,
		leaseScript:    redis.NewScript(leaseLua),
		ackScript:      redis.NewScript(ackLua),
		nackScript:     redis.NewScript(nackLua),
		visibilityTime: visibilityTimeout,
	}
}

func pendingKey(q domain.QueueName) string    { return "queue:pending:" + string(q) }
func processingKey(q domain.QueueName) string { return "queue:processing:" + string(q) }
func payloadKey(jobID string) string          { return "queue:payload:" + jobID }

// leaseLua atomically pops the highest-priority ready job id from the
// pending ZSET and stamps it into the processing ZSET with a lease
// deadline, so a crashed worker's job becomes reapable rather than lost.
const leaseLua = `
local pendingKey = KEYS[1]
local processingKey = KEYS[2]
local now = tonumber(ARGV[1])
local leaseDeadline = tonumber(ARGV[2])

local popped = redis.call('ZPOPMIN', pendingKey, 1)
if #popped == 0 then
  return nil
end

local jobId = popped[1]
redis.call('ZADD', processingKey, leaseDeadline, jobId)
return jobId
`

// ackLua removes a job from the processing set on successful completion.
const ackLua = `
local processingKey = KEYS[1]
local jobId = ARGV[1]
redis.call('ZREM', processingKey, jobId)
return 1
`

// nackLua removes a job from processing and, when retryable, reinserts it
// into pending at a delayed score so it is not immediately re-leased.
const nackLua = `
local processingKey = KEYS[1]
local pendingKey = KEYS[2]
local jobId = ARGV[1]
local retryable = tonumber(ARGV[2])
local score = tonumber(ARGV[3])

redis.call('ZREM', processingKey, jobId)
if retryable == 1 then
  redis.call('ZADD', pendingKey, score, jobId)
end
return 1
`

// score encodes priority (higher first) and enqueue order (earlier first)
// into a single float64 ZSET score.
func score(priority int, queuedAt time.Time) float64 {
	return float64(queuedAt.UnixNano())/1e6 - float64(priority)*1e15
}

// Enqueue implements domain.Queue: stores the job payload and adds its id to
// the pending ZSET for j.Type.
func (b *Broker) Enqueue(ctx context.Context, j domain.Job) (string, error) {
	raw, err := json.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("queue: marshal job: %w", err)
	}
	if err := b.rdb.Set(ctx, payloadKey(j.ID), raw, 0).Err(); err != nil {
		return "", fmt.Errorf("queue: store payload: %w", err)
	}
	if err := b.rdb.ZAdd(ctx, pendingKey(j.Type), redis.Z{
		Score: score(j.Priority, j.QueuedAt), Member: j.ID,
	}).Err(); err != nil {
		return "", fmt.Errorf("queue: enqueue: %w", err)
	}
	return j.ID, nil
}

// Fetch implements domain.Queue: leases the next ready job id for queue and
// loads its payload.
func (b *Broker) Fetch(ctx context.Context, queueName domain.QueueName) (domain.Job, bool, error) {
	now := time.Now()
	deadline := now.Add(b.visibilityTime)
	res, err := b.leaseScript.Run(ctx, b.rdb,
		[]string{pendingKey(queueName), processingKey(queueName)},
		now.UnixMilli(), deadline.UnixMilli(),
	).Result()
	if err == redis.Nil {
		return domain.Job{}, false, nil
	}
	if err != nil {
		return domain.Job{}, false, fmt.Errorf("queue: lease: %w", err)
	}
	if res == nil {
		return domain.Job{}, false, nil
	}
	jobID, ok := res.(string)
	if !ok {
		return domain.Job{}, false, nil
	}
	raw, err := b.rdb.Get(ctx, payloadKey(jobID)).Bytes()
	if err != nil {
		return domain.Job{}, false, fmt.Errorf("queue: load payload %s: %w", jobID, err)
	}
	var j domain.Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return domain.Job{}, false, fmt.Errorf("queue: unmarshal payload %s: %w", jobID, err)
	}
	return j, true, nil
}

// Ack implements domain.Queue: the job completed (successfully or
// terminally failed) and is removed from every queue's processing set.
func (b *Broker) Ack(ctx context.Context, jobID string) error {
	for _, q := range domain.AllQueues {
		if err := b.ackScript.Run(ctx, b.rdb, []string{processingKey(q)}, jobID).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("queue: ack: %w", err)
		}
	}
	b.rdb.Del(ctx, payloadKey(jobID))
	return nil
}

// Nack implements domain.Queue: removes jobID from processing and, if
// retryable, reinserts it into pending after delay.
func (b *Broker) Nack(ctx context.Context, jobID string, retryable bool, after time.Duration) error {
	retryFlag := 0
	if retryable {
		retryFlag = 1
	}
	sc := score(0, time.Now().Add(after))
	for _, q := range domain.AllQueues {
		if err := b.nackScript.Run(ctx, b.rdb,
			[]string{processingKey(q), pendingKey(q)}, jobID, retryFlag, sc,
		).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("queue: nack: %w", err)
		}
	}
	if !retryable {
		b.rdb.Del(ctx, payloadKey(jobID))
	}
	return nil
}

// ExpiredLeases returns job ids whose lease deadline in queueName's
// processing set has already passed — candidates for the reaper to
// requeue or fail. It does not remove them; the caller decides each job's
// fate (retry vs. terminal) before touching broker state.
func (b *Broker) ExpiredLeases(ctx context.Context, queueName domain.QueueName) ([]string, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return b.rdb.ZRangeByScore(ctx, processingKey(queueName), &redis.ZRangeBy{
		Min: "0", Max: now,
	}).Result()
}

// Cancel implements domain.Queue: best-effort removal from every pending set;
// a job already leased finishes its current step and observes
// CancelRequested at its next reportProgress checkpoint instead (§4.C5).
func (b *Broker) Cancel(ctx context.Context, jobID string) error {
	for _, q := range domain.AllQueues {
		b.rdb.ZRem(ctx, pendingKey(q), jobID)
	}
	return nil
}
