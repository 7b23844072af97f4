package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/maua/florist-api/internal/logging"
	"github.com/maua/florist-api/internal/usecase"
	"github.com/stretchr/testify/assert"
)

type fakeDeliverer struct {
	ids []string
	err error
}

func (f *fakeDeliverer) MarkDelivered(_ context.Context, id string) error {
	f.ids = append(f.ids, id)
	return f.err
}

func TestDeliveryConfirmedHandler(t *testing.T) {
	ctx := context.Background()

	d := &fakeDeliverer{}
	h := NewDeliveryConfirmedHandler(d)
	assert.NoError(t, h.Handle(ctx, usecase.DeliveryConfirmedMsg{OrderID: "O1", Status: "delivered"}))
	assert.NoError(t, h.Handle(ctx, usecase.DeliveryConfirmedMsg{OrderID: "O2", Status: "IN_TRANSIT"}))
	assert.Equal(t, []string{"O1"}, d.ids)

	d.err = usecase.ErrInvalidTransition
	assert.NoError(t, h.Handle(ctx, usecase.DeliveryConfirmedMsg{OrderID: "O3", Status: "DELIVERED"}))

	d.err = errors.New("db down")
	assert.Error(t, h.Handle(ctx, usecase.DeliveryConfirmedMsg{OrderID: "O4", Status: "DELIVERED"}))
}

func TestCGHandler_Process(t *testing.T) {
	var seen []string
	h := &cgHandler{
		logger: logging.New("test"),
		handle: func(_ context.Context, ev usecase.DeliveryConfirmedMsg) error {
			seen = append(seen, ev.OrderID)
			if ev.OrderID == "retry" {
				return errors.New("transient")
			}
			return nil
		},
	}
	ctx := context.Background()

	assert.True(t, h.process(ctx, &sarama.ConsumerMessage{Value: []byte(`{"orderId":"O1","status":"DELIVERED"}`)}))
	assert.False(t, h.process(ctx, &sarama.ConsumerMessage{Value: []byte(`{"orderId":"retry","status":"DELIVERED"}`)}))
	// poison is committed without reaching the handler
	assert.True(t, h.process(ctx, &sarama.ConsumerMessage{Value: []byte(`{`)}))
	assert.Equal(t, []string{"O1", "retry"}, seen)
}
