package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	writeTimeout = 5 * time.Second

	UserRegistered    = "user_registered"
	UserLoggedIn      = "user_logged_in"
	UserLoggedOut     = "user_logged_out"
	UserStatusChanged = "user_status_changed"
	PasswordReset     = "password_reset"
	OrderCreated      = "order_created"
	OrderDeleted      = "order_deleted"
)

type Event struct {
	Type       string         `json:"type"`
	Subject    string         `json:"subject"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer     messageWriter
	userTopic  string
	orderTopic string
}

// NewProducer does not dial: kafka-go connects lazily on the first write.
func NewProducer(brokers []string, userTopic, orderTopic string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           writeTimeout,
	}
	return &Producer{writer: w, userTopic: userTopic, orderTopic: orderTopic}
}

func (p *Producer) PublishUser(ctx context.Context, ev Event) error {
	return p.publish(ctx, p.userTopic, ev)
}

func (p *Producer) PublishOrder(ctx context.Context, ev Event) error {
	return p.publish(ctx, p.orderTopic, ev)
}

func (p *Producer) publish(ctx context.Context, topic string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(ev.Subject),
		Value: data,
		Time:  ev.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishUser(context.Context, Event) error  { return nil }
func (Noop) PublishOrder(context.Context, Event) error { return nil }
func (Noop) Close() error                              { return nil }
