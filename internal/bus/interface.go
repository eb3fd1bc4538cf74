package bus

import (
	"context"
	"io"
	"log"
)

// RunMessage announces a pipeline run starting or finishing.
type RunMessage struct {
	RunID     string         `json:"run_id"`
	Status    string         `json:"status"`
	Strategy  string         `json:"strategy"`
	Period    string         `json:"period"`
	Orgs      []string       `json:"orgs"`
	Counts    map[string]int `json:"counts,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// StageMessage announces one pipeline stage completing.
type StageMessage struct {
	RunID     string `json:"run_id"`
	Stage     string `json:"stage"`
	Records   int    `json:"records"`
	Timestamp int64  `json:"timestamp"`
}

// Bus defines the interface for pipeline event publication.
type Bus interface {
	// PublishRun publishes a run lifecycle message (started/completed/failed).
	PublishRun(ctx context.Context, msg RunMessage) error

	// PublishStage publishes a stage-completion message.
	PublishStage(ctx context.Context, msg StageMessage) error

	// HealthCheck performs a health check on the bus connection.
	HealthCheck(ctx context.Context) error

	// Close closes the bus connection.
	Close() error
}

// NewBus creates a bus instance based on the Redis URL.
// If redisURL is empty or the connection fails, returns a NullBus.
func NewBus(redisURL string, logger *log.Logger) Bus {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if redisURL == "" {
		return NewNullBus(logger)
	}

	if redisBus, err := NewRedisBus(redisURL, logger); err == nil {
		return redisBus
	}

	return NewNullBus(logger)
}
