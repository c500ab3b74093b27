package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"inclear-debates/internal/domain"
	"inclear-debates/internal/infra/metrics"
)

// RabbitRoomEvents публикует события жизненного цикла комнат в очередь
// RabbitMQ для внешних потребителей (уведомления ожидающим заявителям).
type RabbitRoomEvents struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

var _ domain.RoomEventPublisher = (*RabbitRoomEvents)(nil)

// NewRabbitRoomEvents подключается к брокеру и объявляет очередь.
func NewRabbitRoomEvents(amqpURL, queue string) (*RabbitRoomEvents, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitRoomEvents{conn: conn, ch: ch, queue: queue}, nil
}

// Publish публикует событие комнаты.
func (q *RabbitRoomEvents) Publish(ctx context.Context, event domain.RoomEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close закрывает канал и подключение.
func (q *RabbitRoomEvents) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
