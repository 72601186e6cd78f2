package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoArmGo/PhotoPrint/internal/config"
	"github.com/GoArmGo/PhotoPrint/internal/messaging/payloads"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client представляет собой клиент RabbitMQ для очереди уведомлений сессий
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger

	// amqp.Channel нельзя использовать для публикации из нескольких горутин одновременно
	publishMu sync.Mutex
	closeOnce sync.Once
}

// NewClient подключается к RabbitMQ и объявляет очередь уведомлений
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	client := &Client{
		logger: logger.With("component", "rabbitmq"),
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	client.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	client.channel = ch

	// Идемпотентно: очередь создаётся, только если её ещё нет
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName, // name
		true,                           // durable
		false,                          // delete when unused
		false,                          // exclusive
		false,                          // no-wait
		nil,                            // arguments
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	client.queue = q
	client.logger.Info("queue declared", "queue", q.Name, "messages", q.Messages)

	return client, nil
}

// Close закрывает канал и соединение. Повторный вызов ничего не делает.
func (c *Client) Close() error {
	var errs []error
	c.closeOnce.Do(func() {
		if c.channel != nil {
			if err := c.channel.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing channel: %w", err))
			}
		}
		if c.conn != nil {
			if err := c.conn.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing connection: %w", err))
			}
		}
		c.logger.Info("connection closed")
	})
	return errors.Join(errs...)
}

// PublishNotice публикует уведомление сессии в очередь.
// Реализует ports.NoticePublisher.
func (c *Client) PublishNotice(ctx context.Context, payload payloads.NoticePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    payload.OccurredAt,
			Type:         payload.Topic,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}
	c.logger.Debug("notice published", "queue", c.queue.Name, "topic", payload.Topic, "session_id", payload.SessionID)
	return nil
}

// StartConsumingNotices начинает потребление уведомлений из очереди.
// Реализует ports.NoticeConsumer.
func (c *Client) StartConsumingNotices(ctx context.Context, handler func(context.Context, payloads.NoticePayload) error) error {
	msgs, err := c.channel.Consume(
		c.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack (подтверждаем вручную)
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered, waiting for messages", "queue", c.queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Info("delivery channel closed, stopping consumer")
					return
				}
				handleDelivery(ctx, msg, handler, c.logger)
			case <-ctx.Done():
				c.logger.Info("context cancelled, stopping consumer")
				return
			}
		}
	}()

	return nil
}

// handleDelivery разбирает одно сообщение и подтверждает его.
// Битое сообщение отклоняется без возврата в очередь, ошибка обработчика возвращает его в очередь.
func handleDelivery(ctx context.Context, msg amqp.Delivery, handler func(context.Context, payloads.NoticePayload) error, logger *slog.Logger) {
	var payload payloads.NoticePayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		logger.Error("failed to unmarshal message", "error", err, "body", string(msg.Body))
		if err := msg.Nack(false, false); err != nil {
			logger.Error("failed to nack malformed message", "error", err)
		}
		return
	}

	if err := handler(ctx, payload); err != nil {
		logger.Error("failed to process message", "error", err, "topic", payload.Topic, "session_id", payload.SessionID)
		if err := msg.Nack(false, true); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("failed to ack message", "error", err)
		return
	}
	logger.Debug("message processed", "topic", payload.Topic, "session_id", payload.SessionID)
}
