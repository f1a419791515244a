// Package events publishes domain events (created notifications, finished
// calls) to a RabbitMQ topic exchange so downstream services such as push or
// e-mail senders can react without touching the realtime path.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher sends an envelope under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

// amqpChannel is the part of *amqp091.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	IsClosed() bool
	Close() error
}

// RabbitPublisher publishes persistent JSON messages to a topic exchange
// over one long-lived channel, reopened if the broker closes it.
type RabbitPublisher struct {
	conn     *amqp091.Connection
	exchange string
	open     func() (amqpChannel, error)

	mu sync.Mutex
	ch amqpChannel
}

// NewRabbitPublisher dials url (with retries) and declares exchange.
func NewRabbitPublisher(ctx context.Context, url, exchange string) (*RabbitPublisher, error) {
	conn, err := DialWithRetry(ctx, url, 5, time.Second)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Printf("[Events] publishing to exchange %s", exchange)
	return &RabbitPublisher{
		conn:     conn,
		exchange: exchange,
		open:     func() (amqpChannel, error) { return conn.Channel() },
		ch:       ch,
	}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		ch, err := p.open()
		if err != nil {
			return fmt.Errorf("open channel: %w", err)
		}
		log.Printf("[Events] reopened channel to exchange %s", p.exchange)
		p.ch = ch
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     msg.Meta.ID,
		CorrelationId: msg.Meta.CorrelationID,
		Timestamp:     msg.Meta.Time,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// DialWithRetry connects to RabbitMQ with exponential backoff capped at a minute.
func DialWithRetry(ctx context.Context, url string, attempts int, delay time.Duration) (*amqp091.Connection, error) {
	const maxDelay = time.Minute
	var lastErr error

	for i := 1; i <= attempts; i++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			if i > 1 {
				log.Printf("[Events] rabbit connected after %d attempts", i)
			}
			return conn, nil
		}
		lastErr = err

		sleep := delay << (i - 1)
		if sleep > maxDelay {
			sleep = maxDelay
		}
		log.Printf("[Events] rabbit dial attempt %d failed, retrying in %s: %v", i, sleep, err)

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("dial cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}
