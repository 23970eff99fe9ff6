package commander

import (
	"context"
	"fmt"
	"time"
)

//go:generate mockery --name RabbitMQPublisher --filename rabbitmqpublisher.go

// ScrapeRoutingKey is routing key product scraper binds its commands queue to by default.
const ScrapeRoutingKey = "ps.cmd.scrape"

// RabbitMQPublisher is RabbitMQ messages publisher.
type RabbitMQPublisher interface {
	Publish(ctx context.Context, routingKey string, message []byte) error
}

// SenderOption is custom configuration of RabbitMQSender.
type SenderOption func(s *RabbitMQSender)

// RabbitMQSender publishes scrape commands to product scraper's routing key.
type RabbitMQSender struct {
	publisher      RabbitMQPublisher
	routingKey     string
	publishTimeout time.Duration
}

// NewRabbitMQSender returns new RabbitMQSender publishing to ScrapeRoutingKey unless configured otherwise.
func NewRabbitMQSender(publisher RabbitMQPublisher, ops ...SenderOption) RabbitMQSender {
	s := RabbitMQSender{
		publisher:  publisher,
		routingKey: ScrapeRoutingKey,
	}

	for _, op := range ops {
		op(&s)
	}

	return s
}

// Send publishes message to RabbitMQSender's routing key.
func (s RabbitMQSender) Send(ctx context.Context, msg []byte) error {
	if s.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
	}

	if err := s.publisher.Publish(ctx, s.routingKey, msg); err != nil {
		return fmt.Errorf("can't publish to %q: %w", s.routingKey, err)
	}

	return nil
}

// WithRoutingKey sets routing key scrape commands are published to.
func WithRoutingKey(routingKey string) SenderOption {
	return func(s *RabbitMQSender) {
		if routingKey != "" {
			s.routingKey = routingKey
		}
	}
}

// WithPublishTimeout limits time of single publish.
func WithPublishTimeout(d time.Duration) SenderOption {
	return func(s *RabbitMQSender) {
		s.publishTimeout = d
	}
}
