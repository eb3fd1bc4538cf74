package bus

import (
	"context"
	"log"
)

// NullBus is a no-op implementation of the bus interface for when Redis is disabled
type NullBus struct {
	logger *log.Logger
}

// NewNullBus creates a new null bus instance
func NewNullBus(logger *log.Logger) *NullBus {
	if logger == nil {
		logger = log.New(log.Writer(), "[NullBus] ", log.LstdFlags)
	}

	return &NullBus{
		logger: logger,
	}
}

// Close is a no-op for null bus
func (nb *NullBus) Close() error {
	return nil
}

// PublishRun logs the run message but doesn't actually publish it
func (nb *NullBus) PublishRun(ctx context.Context, msg RunMessage) error {
	nb.logger.Printf("Would publish run %s status=%s (Redis disabled)", msg.RunID, msg.Status)
	return nil
}

// PublishStage logs the stage message but doesn't actually publish it
func (nb *NullBus) PublishStage(ctx context.Context, msg StageMessage) error {
	nb.logger.Printf("Would publish stage %s for run %s (Redis disabled)", msg.Stage, msg.RunID)
	return nil
}

// HealthCheck always returns nil for null bus
func (nb *NullBus) HealthCheck(ctx context.Context) error {
	return nil
}
