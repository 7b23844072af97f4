package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/maua/florist-api/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingOrderCreated  = "order.created"
	RoutingPaymentStatus = "payment.status_changed"

	OrderCreatedQueue  = "order.created.q"
	PaymentStatusQueue = "payment.status.q"
)

var bindings = map[string]string{
	OrderCreatedQueue:  RoutingOrderCreated,
	PaymentStatusQueue: RoutingPaymentStatus,
}

// RabbitProducer implements usecase.EventPublisher
type RabbitProducer struct {
	mu       sync.Mutex // one publish at a time keeps confirms in order
	ch       *amqp.Channel
	exchange string
}

// NewRabbitProducer sets up the exchange, queues, and bindings once at startup.
func NewRabbitProducer(ch *amqp.Channel, exchange string) (*RabbitProducer, error) {
	// 1. declare exchange (topic type, durable)
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	// 2. declare queues and bind them → exchange
	for queue, key := range bindings {
		q, err := ch.QueueDeclare(
			queue,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	// 3. publisher confirms
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitProducer{ch: ch, exchange: exchange}, nil
}

func (p *RabbitProducer) PublishOrderCreated(ctx context.Context, msg usecase.OrderCreatedMsg) error {
	return p.publish(ctx, RoutingOrderCreated, msg.OrderID, msg)
}

func (p *RabbitProducer) PublishPaymentStatus(ctx context.Context, msg usecase.PaymentStatusChangedMsg) error {
	return p.publish(ctx, RoutingPaymentStatus, msg.OrderID, msg)
}

func (p *RabbitProducer) publish(ctx context.Context, key, orderID string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		MessageId:    orderID,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	dc, err := p.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		p.exchange, // exchange
		key,        // routing key
		false,      // mandatory
		false,      // immediate
		pub,
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", key, err)
	}
	if !acked {
		return fmt.Errorf("publish %s: broker nacked", key)
	}
	return nil
}

var _ usecase.EventPublisher = (*RabbitProducer)(nil)
