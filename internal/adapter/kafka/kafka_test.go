package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
)

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

func testEvent() domain.FloodAlertEvent {
	return domain.FloodAlertEvent{
		PredictionID: "pred-1",
		Latitude:     26.14,
		Longitude:    91.73,
		Rainfall:     312.5,
		WaterLevel:   7.25,
		PlaceName:    "Guwahati, Assam, India",
		AlertSent:    true,
		PredictedAt:  time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	event := testEvent()

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("pred-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"place_name":"Guwahati, Assam, India"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "label", msg.Headers[0].Key)
	assert.Equal(t, []byte("1"), msg.Headers[0].Value)
	assert.Equal(t, "predicted_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-07-01T12:00:00Z"), msg.Headers[1].Value)
	assert.Equal(t, "alert_sent", msg.Headers[2].Key)
	assert.Equal(t, []byte("true"), msg.Headers[2].Value)

	var decoded domain.FloodAlertEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestWriter_PublishAlert(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.PublishAlert(context.Background(), testEvent()))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, []byte("pred-1"), fw.msgs[0].Key)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_PublishAlert_Error(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker unavailable")}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.PublishAlert(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pred-1")
	assert.Contains(t, err.Error(), "broker unavailable")
}
