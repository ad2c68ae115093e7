package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndx-snapshot-backend/internal/models"
)

type recordingWriter struct {
	msgs []kafkaGo.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestEncodeRunEvent(t *testing.T) {
	finished := time.Date(2024, 5, 1, 15, 0, 5, 0, time.UTC)
	rec := models.SyncRunRecord{
		Type:             models.SyncTypeRefresh,
		Status:           models.SyncStatusSuccess,
		CreatedAt:        finished.Add(-5 * time.Second),
		FinishedAt:       finished,
		DurationMs:       5000,
		RefreshedSymbols: []string{"AAPL", "MSFT"},
		SkippedSymbols:   []string{"NVDA"},
	}

	msg, err := EncodeRunEvent(rec)

	require.NoError(t, err)
	assert.Equal(t, "refresh", string(msg.Key))
	assert.Equal(t, finished, msg.Time)
	var event RunEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, 2, event.RefreshedCount)
	assert.Equal(t, []string{"NVDA"}, event.SkippedSymbols)
	assert.Empty(t, event.Error)
}

func TestRunPublisher_Publish(t *testing.T) {
	t.Run("should write one message per run", func(t *testing.T) {
		w := &recordingWriter{}
		p := &RunPublisher{w: w}

		err := p.Publish(context.Background(), models.SyncRunRecord{Type: models.SyncTypeRefresh, Status: models.SyncStatusError, Error: "no data"})

		require.NoError(t, err)
		require.Len(t, w.msgs, 1)
		assert.Contains(t, string(w.msgs[0].Value), `"error":"no data"`)
	})

	t.Run("should surface writer errors", func(t *testing.T) {
		boom := errors.New("broker down")
		p := &RunPublisher{w: &recordingWriter{err: boom}}

		err := p.Publish(context.Background(), models.SyncRunRecord{Type: models.SyncTypeRefresh})

		assert.ErrorIs(t, err, boom)
	})
}
