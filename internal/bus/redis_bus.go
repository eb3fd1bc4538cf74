package bus

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Stream names for pipeline event publication.
const (
	runsStream   = "pipeline:runs"
	stagesStream = "pipeline:stages"
)

// RedisBus provides Redis Streams-based publication of pipeline events so
// downstream consumers (dashboards, alerting) can react to completed runs.
type RedisBus struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedisBus creates a new Redis bus instance
func NewRedisBus(redisURL string, logger *log.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = log.New(log.Writer(), "[RedisBus] ", log.LstdFlags)
	}

	return &RedisBus{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (rb *RedisBus) Close() error {
	return rb.client.Close()
}

// PublishRun publishes a run lifecycle message to the runs stream
func (rb *RedisBus) PublishRun(ctx context.Context, msg RunMessage) error {
	fields := map[string]interface{}{
		"run_id":    msg.RunID,
		"status":    msg.Status,
		"strategy":  msg.Strategy,
		"period":    msg.Period,
		"orgs":      strings.Join(msg.Orgs, ","),
		"timestamp": msg.Timestamp,
	}
	for entity, count := range msg.Counts {
		fields["count:"+entity] = count
	}

	result := rb.client.XAdd(ctx, &redis.XAddArgs{
		Stream: runsStream,
		Values: fields,
	})

	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish run message: %w", err)
	}

	rb.logger.Printf("Published run %s status=%s to %s", msg.RunID, msg.Status, runsStream)
	return nil
}

// PublishStage publishes a stage-completion message to the stages stream
func (rb *RedisBus) PublishStage(ctx context.Context, msg StageMessage) error {
	result := rb.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stagesStream,
		Values: map[string]interface{}{
			"run_id":    msg.RunID,
			"stage":     msg.Stage,
			"records":   msg.Records,
			"timestamp": msg.Timestamp,
		},
	})

	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish stage message: %w", err)
	}

	return nil
}

// HealthCheck performs a health check on the Redis connection
func (rb *RedisBus) HealthCheck(ctx context.Context) error {
	return rb.client.Ping(ctx).Err()
}
