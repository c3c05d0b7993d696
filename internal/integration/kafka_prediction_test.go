//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/energy-analytics-service/internal/adapter/kafka"
	"github.com/couchcryptid/energy-analytics-service/internal/config"
	"github.com/couchcryptid/energy-analytics-service/internal/dashboard"
	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	"github.com/couchcryptid/energy-analytics-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testPredictionTopic = "test-energy-predictions"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("energy-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type staticSource struct{ assets *domain.Assets }

func (s staticSource) Load(context.Context) (*domain.Assets, error) { return s.assets, nil }

type constantPredictor struct{ value float64 }

func (p constantPredictor) Predict(context.Context, domain.PredictionInput) (domain.PredictionResult, error) {
	return domain.PredictionResult{Prediction: p.value}, nil
}

// TestPredictionEventsPublished drives a prediction through the dashboard
// service and reads the resulting event back from Kafka.
func TestPredictionEventsPublished(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testPredictionTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		KafkaBrokers:         []string{broker},
		KafkaPredictionTopic: testPredictionTopic,
	}
	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	svc := dashboard.NewService(constantPredictor{value: 1234.5}, writer, 16, observability.NewMetricsForTesting(), logger)
	require.NoError(t, svc.Load(ctx, staticSource{assets: &domain.Assets{
		Rows: []domain.Row{{EntityID: 7, Year: 2023, Month: 1, Energy: 1000}},
	}}))

	in := domain.DefaultPredictionInput()
	in.EntityID = 7
	rec, err := svc.Predict(ctx, in)
	require.NoError(t, err)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testPredictionTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = reader.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read prediction event")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, rec.ID, string(msg.Key))
	assert.Equal(t, "7", headers["entity_id"])
	assert.Equal(t, rec.CreatedAt.Format(time.RFC3339), headers["created_at"])

	var event kafka.PredictionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, rec.ID, event.ID)
	assert.Equal(t, in, event.Input)
	assert.InDelta(t, 1234.5, event.Prediction, 1e-9)
	assert.Nil(t, event.Confidence)
}
