package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jHLuno/telfera/app/models"
)

const (
	ExchangeName = "ex.leads"
	RoutingKey   = "lead.created"
)

// Publisher is the subset of *amqp.Channel used to publish
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// LeadCreatedEvent is the message body published for downstream consumers.
type LeadCreatedEvent struct {
	LeadID          string    `json:"lead_id"`
	ClientName      string    `json:"client_name"`
	ClientPhone     string    `json:"client_phone"`
	ClientEmail     string    `json:"client_email,omitempty"`
	Company         string    `json:"company,omitempty"`
	ProductInterest string    `json:"product_interest,omitempty"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

// AMQP publishes lead.created events to a durable topic exchange. When
// built by DialAMQP it redials on the next publish after the broker drops
// the connection.
type AMQP struct {
	mu     sync.Mutex
	url    string
	dial   dialFunc
	ch     Publisher
	conn   connection
	closed bool
}

// connection is the subset of *amqp.Connection the publisher manages.
type connection interface {
	IsClosed() bool
	Close() error
}

type dialFunc func(url string) (Publisher, connection, error)

func NewAMQP(ch Publisher) *AMQP {
	return &AMQP{ch: ch}
}

// DialAMQP connects, opens a channel and declares the exchange.
func DialAMQP(url string) (*AMQP, error) {
	return dialWith(url, dialBroker)
}

func dialWith(url string, dial dialFunc) (*AMQP, error) {
	ch, conn, err := dial(url)
	if err != nil {
		return nil, err
	}
	return &AMQP{url: url, dial: dial, ch: ch, conn: conn}, nil
}

func dialBroker(url string) (Publisher, connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", ExchangeName, err)
	}

	lost := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-lost; ok && err != nil {
			log.Warnw("[Notify] AMQP connection lost, redialing on next publish", "error", err.Error())
		}
	}()
	return ch, conn, nil
}

// publisher returns the live channel, redialing when the connection has
// dropped since the last publish.
func (a *AMQP) publisher() (Publisher, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, errors.New("publisher closed")
	}
	if a.dial == nil || (a.conn != nil && !a.conn.IsClosed()) {
		return a.ch, nil
	}

	ch, conn, err := a.dial(a.url)
	if err != nil {
		return nil, err
	}
	log.Info("[Notify] AMQP connection re-established")
	a.ch, a.conn = ch, conn
	return ch, nil
}

func (a *AMQP) LeadCreated(ctx context.Context, lead *models.Lead) error {
	body, err := json.Marshal(LeadCreatedEvent{
		LeadID:          lead.ID,
		ClientName:      lead.ClientName,
		ClientPhone:     lead.ClientPhone,
		ClientEmail:     lead.ClientEmail,
		Company:         lead.Company,
		ProductInterest: lead.ProductInterest,
		Source:          lead.Source,
		CreatedAt:       lead.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ch, err := a.publisher()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    lead.ID,
			Timestamp:    lead.CreatedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}
	return nil
}

// Close releases the connection opened by DialAMQP and stops redialing.
func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	if a.conn == nil || a.conn.IsClosed() {
		return nil
	}
	return a.conn.Close()
}
