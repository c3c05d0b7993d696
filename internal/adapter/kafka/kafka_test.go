package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() domain.PredictionRecord {
	conf := 0.9
	return domain.PredictionRecord{
		ID:         "rec-1",
		Input:      domain.DefaultPredictionInput(),
		Prediction: 1500.25,
		Confidence: &conf,
		CreatedAt:  time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	rec := testRecord()

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("rec-1"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "entity_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("11"), msg.Headers[0].Value)
	assert.Equal(t, "created_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[1].Value)

	var got PredictionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, PredictionEvent(rec), got)
}

func TestSerializeToMessage_OmitsMissingConfidence(t *testing.T) {
	rec := testRecord()
	rec.Confidence = nil

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(msg.Value), "confidence")
}

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestWriter_PublishPrediction(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.PublishPrediction(context.Background(), testRecord()))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, []byte("rec-1"), fw.msgs[0].Key)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_PublishPrediction_Error(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.PublishPrediction(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rec-1")
	assert.Contains(t, err.Error(), "broker down")
}
