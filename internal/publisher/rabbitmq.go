package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"hn_reader/internal/domain"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

// RabbitMQ publishes story events to a durable direct exchange.
type RabbitMQ struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
	now        func() time.Time
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	logger = logger.With("component", "publisher")
	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

type StoryMessage struct {
	Action    string       `json:"action"`
	Story     domain.Story `json:"story"`
	Timestamp time.Time    `json:"timestamp"`
}

func newStoryMessage(story *domain.Story, isNew bool, now time.Time) StoryMessage {
	action := ActionUpdate
	if isNew {
		action = ActionCreate
	}
	return StoryMessage{Action: action, Story: *story, Timestamp: now.UTC()}
}

// publishing wraps msg as a persistent JSON delivery. The type is
// "story.create" or "story.update".
func publishing(msg StoryMessage) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         "story." + msg.Action,
		MessageId:    strconv.FormatInt(msg.Story.ID, 10) + "-" + strconv.FormatInt(msg.Timestamp.UnixNano(), 10),
		Timestamp:    msg.Timestamp,
		Body:         body,
	}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, story *domain.Story, isNew bool) error {
	msg := newStoryMessage(story, isNew, r.now())
	pub, err := publishing(msg)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishes
	r.mu.Lock()
	err = r.channel.PublishWithContext(ctx, r.exchange, r.routingKey, false, false, pub)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish story %d: %w", story.ID, err)
	}

	r.logger.Debug("published story", "id", story.ID, "action", msg.Action)
	return nil
}

func (r *RabbitMQ) Close() error {
	var errs []error
	if r.channel != nil {
		errs = append(errs, r.channel.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}
