package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/energy-analytics-service/internal/config"
	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// PredictionEvent is the message body published for every completed
// prediction.
type PredictionEvent struct {
	ID         string                 `json:"id"`
	Input      domain.PredictionInput `json:"input"`
	Prediction float64                `json:"prediction"`
	Confidence *float64               `json:"confidence,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes prediction events to a Kafka topic.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured prediction topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaPredictionTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishPrediction serializes one prediction record and writes it keyed by
// its id.
func (w *Writer) PublishPrediction(ctx context.Context, rec domain.PredictionRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish prediction %s: %w", rec.ID, err)
	}
	w.logger.Debug("prediction published", "id", rec.ID, "entity_id", rec.Input.EntityID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeToMessage(rec domain.PredictionRecord) (kafkago.Message, error) {
	data, err := json.Marshal(PredictionEvent(rec))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "entity_id", Value: []byte(strconv.Itoa(rec.Input.EntityID))},
			{Key: "created_at", Value: []byte(rec.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
