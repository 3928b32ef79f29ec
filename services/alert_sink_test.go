package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-ordering/models"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func TestKafkaSinkPublishesJSONKeyedByKind(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(w)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, sink.Emit(context.Background(), newCallAlert(3, 9, at)))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "new-call", string(w.messages[0].Key))

	var decoded Alert
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, AlertNewCall, decoded.Kind)
	assert.Equal(t, "bell-double", decoded.Cue)
	require.NotNil(t, decoded.TableNumber)
	assert.Equal(t, uint(9), *decoded.TableNumber)
}

func TestNotificationSinkStoresRows(t *testing.T) {
	f := newFixture(t)
	sink := NewNotificationSink(f.db)

	require.NoError(t, sink.Emit(context.Background(), newOrderAlert(11, 2, "ORD-X", testEpoch)))
	require.NoError(t, sink.Emit(context.Background(), summaryAlert(AlertUrgentCall, 4, testEpoch)))

	var rows []models.Notification
	require.NoError(t, f.db.Order("id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "new-order", rows[0].Kind)
	require.NotNil(t, rows[0].OrderID)
	assert.Equal(t, uint(11), *rows[0].OrderID)
	assert.Equal(t, "urgent-call", rows[1].Kind)
	assert.Equal(t, 4, rows[1].Count)
	assert.Nil(t, rows[1].TableNumber)
}

func TestMultiSinkFansOutAndJoinsErrors(t *testing.T) {
	good := &recordingSink{}
	broken := &fakeWriter{err: errors.New("broker down")}
	sink := MultiSink{good, NewKafkaSink(broken), LogSink{}}

	err := sink.Emit(context.Background(), summaryAlert(AlertPendingOrder, 2, testEpoch))
	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, 1, good.count(AlertPendingOrder))
}

func TestEveryAlertKindHasADistinctCue(t *testing.T) {
	seen := map[string]AlertKind{}
	for _, kind := range AlertKinds() {
		cue := kind.Cue()
		assert.NotEmpty(t, cue.Tones, kind)
		if prev, dup := seen[cue.Name]; dup {
			t.Errorf("%s and %s share cue %s", prev, kind, cue.Name)
		}
		seen[cue.Name] = kind
	}
	assert.Equal(t, "none", AlertKind("bogus").Cue().Name)
	assert.False(t, AlertNewOrder.IsSummary())
	assert.True(t, AlertUrgentOrder.IsSummary())
}

func TestNewKafkaWriterFlushesPromptly(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "cafe-alerts")
	defer w.Close()

	assert.Equal(t, "cafe-alerts", w.Topic)
	assert.IsType(t, &kafka.LeastBytes{}, w.Balancer)
	assert.False(t, w.Async, "publish errors must reach the notifier")
	assert.Positive(t, w.BatchTimeout)
	assert.Less(t, w.BatchTimeout, 100*time.Millisecond)
}
