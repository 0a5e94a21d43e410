package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/cvenhancer/core/internal/domain"
)

// TopicDomainEvents is the Kafka/Redpanda topic every processor publishes
// its *.completed/*.failed DomainEvent to. The job broker (internal/queue)
// is a separate Redis instance — this bus only carries fan-out
// notifications to the webhook matcher, never job payloads, so it does not
// need the teacher's transactional producer's exactly-once machinery.
const TopicDomainEvents = "domain-events"

// EventBus publishes and consumes DomainEvents over Redpanda, grounded on
// the teacher's redpanda.Producer/Consumer but simplified: domain events
// are idempotent notifications (re-delivery just re-evaluates the same
// matcher decision), not job dispatch, so there is no transactional ID or
// exactly-once commit dance here.
type EventBus struct {
	client *kgo.Client
	topic  string
}

// NewEventBus builds an EventBus against the given seed brokers, creating
// the topic if it does not already exist.
func NewEventBus(brokers []string) (*EventBus, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("webhook: no seed brokers provided")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup("webhook-dispatcher"),
		kgo.ConsumeTopics(TopicDomainEvents),
		kgo.RequestRetries(10),
	)
	if err != nil {
		return nil, fmt.Errorf("webhook: kafka client: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), client, TopicDomainEvents, 4, 1); err != nil {
		slog.Warn("webhook: topic creation failed, it may already exist",
			slog.String("topic", TopicDomainEvents), slog.Any("error", err))
	}
	return &EventBus{client: client, topic: TopicDomainEvents}, nil
}

// Publish implements domain.EventPublisher.
func (b *EventBus) Publish(ctx domain.Context, evt domain.DomainEvent) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: b.topic,
		Key:   []byte(evt.JobID),
		Value: raw,
	}
	result := b.client.ProduceSync(ctx, record)
	if err := result.FirstErr(); err != nil {
		return fmt.Errorf("webhook: publish event: %w", err)
	}
	return nil
}

// Consume blocks, polling the domain-events topic and invoking handle for
// each DomainEvent, until ctx is cancelled. A handle error is logged and
// the record skipped rather than retried — the matcher re-evaluating a
// stale event on crash-restart is harmless, so at-least-once delivery here
// trades a rare missed webhook for not needing an offset-commit retry loop.
func (b *EventBus) Consume(ctx context.Context, handle func(context.Context, domain.DomainEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		fetches := b.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("webhook: fetch error", slog.String("topic", topic), slog.Int("partition", int(partition)), slog.Any("error", err))
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			var evt domain.DomainEvent
			if err := json.Unmarshal(rec.Value, &evt); err != nil {
				slog.Error("webhook: decode event", slog.Any("error", err))
				return
			}
			if err := handle(ctx, evt); err != nil {
				slog.Error("webhook: handle event", slog.String("type", evt.Type), slog.Any("error", err))
			}
		})
	}
}

// Close releases the underlying Kafka client.
func (b *EventBus) Close() {
	if b.client != nil {
		b.client.Close()
	}
}

// createTopicIfNotExists creates topic via the Kafka AdminClient API,
// treating TOPIC_ALREADY_EXISTS (error code 36) as success.
func createTopicIfNotExists(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	req := kmsg.NewCreateTopicsRequest()
	req.TimeoutMillis = 30000

	topicReq := kmsg.NewCreateTopicsRequestTopic()
	topicReq.Topic = topic
	topicReq.NumPartitions = partitions
	topicReq.ReplicationFactor = replicationFactor
	req.Topics = append(req.Topics, topicReq)

	resp, err := client.Request(ctx, &req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	createTopicsResp, ok := resp.(*kmsg.CreateTopicsResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}
	for _, topicResp := range createTopicsResp.Topics {
		if topicResp.ErrorCode != 0 {
			if topicResp.ErrorCode == 36 {
				slog.Info("topic already exists", slog.String("topic", topicResp.Topic))
				return nil
			}
			errMsg := ""
			if topicResp.ErrorMessage != nil {
				errMsg = *topicResp.ErrorMessage
			}
			return fmt.Errorf("create topic error: %s (code %d)", errMsg, topicResp.ErrorCode)
		}
	}
	return nil
}
