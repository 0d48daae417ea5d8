package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/sales"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaForwarder_Handle(t *testing.T) {
	writer := &fakeWriter{}
	forwarder := NewKafkaForwarder(writer, NewEventSerializer(), zap.NewNop())
	tenantID := uuid.New()
	ev := newTestEvent(sales.EventTypeSalesOrderCreated, tenantID)

	require.NoError(t, forwarder.Handle(context.Background(), ev))

	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	assert.Equal(t, tenantID.String(), string(msg.Key))
	assert.Contains(t, string(msg.Value), ev.EventID().String())
	assert.Equal(t, kafka.Header{Key: "event_type", Value: []byte(sales.EventTypeSalesOrderCreated)}, msg.Headers[0])

	require.NoError(t, forwarder.Close())
	assert.True(t, writer.closed)
}

func TestKafkaForwarder_WriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("leader not available")}
	forwarder := NewKafkaForwarder(writer, NewEventSerializer(), zap.NewNop())

	err := forwarder.Handle(context.Background(), newTestEvent("E", uuid.New()))
	assert.ErrorContains(t, err, "leader not available")
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "invoicing.events"})
	assert.Equal(t, "invoicing.events", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.NotZero(t, w.WriteTimeout)
}
