package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	publishTimeout = 5 * time.Second
	maxDialBackoff = 30 * time.Second
	requeueDelay   = 5 * time.Second
)

// Client publishes and consumes statement ingestion jobs over a direct
// exchange bound to one durable queue.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	retryDelay   time.Duration
	logger       *logrus.Logger
}

func NewClient(url, exchangeName, queueName string, logger *logrus.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		retryDelay:   requeueDelay,
		logger:       logger,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

// DialWithRetry keeps trying NewClient until it succeeds, the error is not a
// connection problem, or ctx ends.
func DialWithRetry(ctx context.Context, url, exchangeName, queueName string, logger *logrus.Logger) (*Client, error) {
	for attempt := 0; ; attempt++ {
		client, err := NewClient(url, exchangeName, queueName, logger)
		if err == nil {
			return client, nil
		}
		if !isConnectionError(err) {
			return nil, err
		}

		wait := exponentialBackoff(attempt)
		logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"retry":   wait.String(),
		}).Warn("AMQP broker unavailable")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	// one statement at a time per worker
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	return nil
}

func (c *Client) PublishStatementUploaded(ctx context.Context, uploadID, userID uuid.UUID) error {
	body, err := NewStatementUploadedMessage(uploadID, userID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			MessageId:    uploadID.String(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"upload_id": uploadID,
		"user_id":   userID,
		"exchange":  c.exchangeName,
		"queue":     c.queueName,
	}).Info("statement ingestion queued")

	return nil
}

// ConsumeStatementUploaded delivers messages to handler until ctx ends.
// Undecodable messages are dropped; handler errors requeue the message.
func (c *Client) ConsumeStatementUploaded(ctx context.Context, handler func(context.Context, *StatementUploadedMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.WithField("queue", c.queueName).Info("consuming statement uploads")

	for {
		select {
		case <-ctx.Done():
			c.logger.WithField("reason", ctx.Err()).Info("stopping message consumption")
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler func(context.Context, *StatementUploadedMessage) error) {
	msg, err := StatementUploadedMessageFromJSON(delivery.Body)
	if err != nil {
		c.logger.WithError(err).Error("dropping undecodable message")
		delivery.Nack(false, false)
		return
	}

	logger := c.logger.WithFields(logrus.Fields{
		"upload_id":   msg.UploadID,
		"user_id":     msg.UserID,
		"redelivered": delivery.Redelivered,
	})

	if err := handler(ctx, msg); err != nil {
		logger.WithError(err).WithField("retry", c.retryDelay.String()).Error("statement ingestion failed, requeueing")
		// hold the delivery so a persistent failure does not spin
		select {
		case <-ctx.Done():
		case <-time.After(c.retryDelay):
		}
		delivery.Nack(false, true)
		return
	}

	delivery.Ack(false)
	logger.Info("statement ingestion acknowledged")
}

// NotifyClose returns a channel that receives the reason the broker
// connection closed. It is closed without a value on a clean shutdown.
func (c *Client) NotifyClose() <-chan *amqp091.Error {
	return c.conn.NotifyClose(make(chan *amqp091.Error, 1))
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxDialBackoff
	}
	return min(time.Second<<attempt, maxDialBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var amqpErr *amqp091.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Recover || amqpErr.Code == amqp091.ConnectionForced
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection reset", "connection closed", "eof", "broken pipe", "closed network connection", "no such host"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
