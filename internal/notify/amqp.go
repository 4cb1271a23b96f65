package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes messages to a durable queue. A separate mailer
// process consumes the queue and performs the actual delivery.
type AMQPNotifier struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel publisher
	closer  func() error
	queue   string
}

// NewAMQPNotifier connects to the broker and declares the queue.
func NewAMQPNotifier(url, queue string) (*AMQPNotifier, error) {
	conn, channel, err := openQueue(url, queue)
	if err != nil {
		return nil, err
	}
	return &AMQPNotifier{
		conn:    conn,
		channel: channel,
		closer:  channel.Close,
		queue:   queue,
	}, nil
}

func openQueue(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return conn, channel, nil
}

// Send publishes msg as a persistent JSON message.
func (n *AMQPNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.channel.PublishWithContext(ctx,
		"",      // default exchange
		n.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (n *AMQPNotifier) Close() error {
	if n.closer != nil {
		_ = n.closer()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// Consumer delivers queued messages through a Notifier.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	notifier Notifier
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewConsumer connects to the broker and declares the queue.
func NewConsumer(url, queue string, notifier Notifier, timeout time.Duration, logger zerolog.Logger) (*Consumer, error) {
	conn, channel, err := openQueue(url, queue)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Consumer{
		conn:     conn,
		channel:  channel,
		queue:    queue,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// Run consumes until ctx is done or the broker closes the delivery channel.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	c.process(ctx, d.MessageId, d.Body, &d)
}

func (c *Consumer) process(ctx context.Context, id string, body []byte, ack acknowledger) {
	logger := c.logger.With().Str("message_id", id).Logger()

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Error().Err(err).Msg("dropping malformed message")
		_ = ack.Nack(false, false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.notifier.Send(sendCtx, msg); err != nil {
		logger.Error().Err(err).Str("to", msg.To).Msg("delivery failed, requeueing")
		_ = ack.Nack(false, true)
		return
	}
	logger.Info().Str("to", msg.To).Msg("delivered")
	_ = ack.Ack(false)
}

// Close closes the channel and the connection.
func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
