package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/teamcobee/roomie/internal/config"
	"github.com/teamcobee/roomie/internal/validation"
	"github.com/teamcobee/roomie/pkg/models"
)

const ConsumerGroup = "roomie-sync-processors"

// SyncEvent is an interaction or post-lifecycle change published by the main
// service. The engine consumes it to keep its caches honest between direct
// API writes.
type SyncEvent struct {
	EventType     string               `json:"event_type"`
	MemberID      int64                `json:"member_id"`
	RecruitPostID int64                `json:"recruit_post_id"`
	RecruitStatus models.RecruitStatus `json:"recruit_status,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// ModelEvent announces a freshly published factorization snapshot.
type ModelEvent struct {
	ModelVersion string    `json:"model_version"`
	TrainedAt    time.Time `json:"trained_at"`
	Members      int       `json:"members"`
	Posts        int       `json:"posts"`
}

type MessageBus struct {
	producer  *kafka.Writer
	consumer  *kafka.Reader
	dlqWriter *kafka.Writer
	validator *validation.SchemaValidator
	logger    *logrus.Logger
}

func NewMessageBus(cfg *config.Config, validator *validation.SchemaValidator, logger *logrus.Logger) (*MessageBus, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	producer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topics.ModelEvents,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}

	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topics.InteractionSync,
		GroupID:        ConsumerGroup,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topics.InteractionSync + "-dlq",
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &MessageBus{
		producer:  producer,
		consumer:  consumer,
		dlqWriter: dlqWriter,
		validator: validator,
		logger:    logger,
	}, nil
}

// PublishModelEvent announces a snapshot publication on the model events
// topic. Implements the trainer's publisher interface.
func (mb *MessageBus) PublishModelEvent(ctx context.Context, version uuid.UUID, trainedAt time.Time, members, posts int) error {
	event := ModelEvent{
		ModelVersion: version.String(),
		TrainedAt:    trainedAt,
		Members:      members,
		Posts:        posts,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal model event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = mb.producer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(version.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "model_version", Value: []byte(version.String())},
			{Key: "timestamp", Value: []byte(trainedAt.Format(time.RFC3339))},
		},
	})
	if err != nil {
		mb.logger.WithError(err).WithField("model_version", version).Error("Failed to publish model event")
		return fmt.Errorf("failed to write model event: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"model_version": version,
		"members":       members,
		"posts":         posts,
	}).Info("Model event published")

	return nil
}

// ConsumeSyncEvents reads interaction sync events until the context is
// cancelled. Payloads that fail schema validation go straight to the DLQ;
// handler failures are retried with backoff and dead-lettered after that.
func (mb *MessageBus) ConsumeSyncEvents(ctx context.Context, handler func(context.Context, SyncEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			message, err := mb.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				mb.logger.WithError(err).Error("Failed to read sync event")
				continue
			}

			if result := mb.validator.ValidateSyncEvent(message.Value); !result.Valid {
				mb.logger.WithField("errors", result.Errors).Warn("Sync event failed schema validation")
				if dlqErr := mb.sendToDLQ(ctx, message.Value, result.Error()); dlqErr != nil {
					mb.logger.WithError(dlqErr).Error("Failed to dead-letter invalid sync event")
				}
				continue
			}

			var event SyncEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				mb.logger.WithError(err).Error("Failed to unmarshal sync event")
				continue
			}

			if err := mb.processWithRetry(ctx, event, handler); err != nil {
				mb.logger.WithError(err).WithFields(logrus.Fields{
					"event_type": event.EventType,
					"member_id":  event.MemberID,
				}).Error("Failed to process sync event after retries")

				if dlqErr := mb.sendToDLQ(ctx, message.Value, err.Error()); dlqErr != nil {
					mb.logger.WithError(dlqErr).Error("Failed to send sync event to DLQ")
				}
			}
		}
	}
}

func (mb *MessageBus) processWithRetry(ctx context.Context, event SyncEvent, handler func(context.Context, SyncEvent) error) error {
	const maxRetries = 3
	baseDelay := time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := handler(ctx, event)
		if err == nil {
			return nil
		}

		mb.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": event.EventType,
			"attempt":    attempt,
		}).Warn("Sync event processing failed")

		if attempt == maxRetries {
			return fmt.Errorf("max retries exceeded: %w", err)
		}
	}

	return fmt.Errorf("unexpected retry loop exit")
}

func (mb *MessageBus) sendToDLQ(ctx context.Context, original []byte, reason string) error {
	dlqMessage := map[string]interface{}{
		"original_payload": json.RawMessage(original),
		"error":            reason,
		"dlq_timestamp":    time.Now(),
	}

	payload, err := json.Marshal(dlqMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	err = mb.dlqWriter.WriteMessages(ctx, kafka.Message{
		Value: payload,
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(reason)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write to DLQ: %w", err)
	}

	return nil
}

func (mb *MessageBus) Close() error {
	var errs []error

	if err := mb.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close producer: %w", err))
	}
	if err := mb.consumer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close consumer: %w", err))
	}
	if err := mb.dlqWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close DLQ writer: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing message bus: %v", errs)
	}
	return nil
}
