package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/port/output"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	PrefetchCount = 1 // Process one message at a time per worker
	ConsumerTag   = "payflow-audit"
)

// Config names the broker topology used for transition events
type Config struct {
	URL        string
	Exchange   string
	Queue      string
	RoutingKey string
}

// RabbitMQClient is a secondary adapter that implements EventPublisher output port
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	logger  *zap.Logger
}

var _ output.EventPublisher = (*RabbitMQClient)(nil)

// NewRabbitMQClient connects to RabbitMQ and declares the exchange, queue and binding
func NewRabbitMQClient(cfg Config, logger *zap.Logger) (*RabbitMQClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel, cfg); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: channel,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

func declareTopology(channel *amqp.Channel, cfg Config) error {
	err := channel.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(cfg.Queue, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// Publish publishes a transition event
func (c *RabbitMQClient) Publish(ctx context.Context, event core.TransitionEvent) error {
	publishing, err := encodeEvent(event)
	if err != nil {
		return err
	}

	err = c.channel.PublishWithContext(ctx,
		c.cfg.Exchange,
		c.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("published transition event",
		zap.String("event_id", event.ID.String()),
		zap.String("payment_id", event.PaymentID),
	)
	return nil
}

// ConsumeTransitionEvents starts consuming transition events until ctx is done
func (c *RabbitMQClient) ConsumeTransitionEvents(ctx context.Context, handler func(core.TransitionEvent) error) error {
	if err := c.channel.Qos(PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.cfg.Queue,
		ConsumerTag,
		false, // auto-ack (we'll manually ack after processing)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("started consuming transition events", zap.String("queue", c.cfg.Queue))

	go func() {
		<-ctx.Done()
		if err := c.channel.Cancel(ConsumerTag, false); err != nil {
			c.logger.Warn("failed to cancel consumer", zap.Error(err))
		}
	}()

	go func() {
		for msg := range msgs {
			event, err := decodeEvent(msg.Body)
			if err != nil {
				// A body that does not decode never will; drop it.
				c.logger.Error("error unmarshaling message", zap.Error(err))
				msg.Nack(false, false)
				continue
			}

			if err := handler(event); err != nil {
				c.logger.Error("error handling transition event",
					zap.String("event_id", event.ID.String()),
					zap.Error(err),
				)
				msg.Nack(false, true)
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}

// Close closes the RabbitMQ connection
func (c *RabbitMQClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func encodeEvent(event core.TransitionEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal message: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Type:         string(event.Operation),
		Body:         body,
		Timestamp:    time.Now(),
	}, nil
}

func decodeEvent(body []byte) (core.TransitionEvent, error) {
	var event core.TransitionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return core.TransitionEvent{}, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if event.PaymentID == "" {
		return core.TransitionEvent{}, errors.New("message has no payment_id")
	}
	return event, nil
}
