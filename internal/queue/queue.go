package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lexguard/backend/internal/util"
	"github.com/lexguard/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const eventExchange = "lexguard_events"

// Topics published by the backend. Downstream consumers (notification
// services, audit trails) bind to these with their own queues.
const (
	TopicDocumentIngested = "document.ingested"
	TopicDocumentDeleted  = "document.deleted"
	TopicConflictDetected = "conflict.detected"
)

// Init connects to RabbitMQ using the RABBITMQ_* environment variables.
func Init() (*amqp091.Connection, error) {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	return amqp091.Dial(connURL)
}

// Publisher publishes domain events to the topic exchange. A nil Publisher
// is valid and drops every event, so event publishing stays optional.
type Publisher struct {
	ch *amqp091.Channel
}

// NewPublisher declares the event exchange on the given channel.
func NewPublisher(ch *amqp091.Channel) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		eventExchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

// PublishEvent publishes a domain event fire-and-forget. Marshal or publish
// failures are logged, never surfaced; event delivery must not affect
// request handling.
func (p *Publisher) PublishEvent(topic string, payload any) {
	if p == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("[Queue] Failed to marshal event", "topic", topic, "err", err)
		return
	}

	err = p.ch.Publish(
		eventExchange,
		topic,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         data,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		logger.Error("[Queue] Failed to publish event", "topic", topic, "err", err)
	}
}
