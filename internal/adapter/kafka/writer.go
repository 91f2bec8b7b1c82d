package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes flood alert events to a Kafka topic.
// It implements pipeline.AlertPublisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the alert topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishAlert writes one event keyed by prediction ID.
func (w *Writer) PublishAlert(ctx context.Context, event domain.FloodAlertEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish flood alert %s: %w", event.PredictionID, err)
	}
	w.logger.Debug("flood alert published", "prediction_id", event.PredictionID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a FloodAlertEvent into a Kafka message.
func serializeToMessage(event domain.FloodAlertEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize flood alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.PredictionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "label", Value: []byte(strconv.Itoa(int(domain.Flood)))},
			{Key: "predicted_at", Value: []byte(event.PredictedAt.Format(time.RFC3339))},
			{Key: "alert_sent", Value: []byte(strconv.FormatBool(event.AlertSent))},
		},
	}, nil
}
