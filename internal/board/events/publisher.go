// Package events publishes board changes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventTypeBoardChanged = "BoardChanged"

	// GuestKey partitions events of the signed-out board.
	GuestKey = "guest"

	writeTimeout = 5 * time.Second
)

type BoardChangedEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	UserID      string    `json:"user_id"`
	Backend     string    `json:"backend"`
	Op          string    `json:"op"`
	CategoryKey string    `json:"category_key,omitempty"`
	ItemKey     string    `json:"item_key,omitempty"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// Publisher turns snapshots into BoardChanged events. Handle never blocks:
// snapshots are queued and written by Start. When the queue is full the event
// is dropped and logged.
type Publisher struct {
	writer MessageWriter
	logger logger.ZapLogger
	queue  chan kafka.Message
	now    func() time.Time
}

func NewPublisher(writer MessageWriter, log logger.ZapLogger, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Publisher{
		writer: writer,
		logger: log,
		queue:  make(chan kafka.Message, buffer),
		now:    time.Now,
	}
}

// Handle is meant to be registered with the tree store's Subscribe.
func (p *Publisher) Handle(snap board.Snapshot) {
	event := BoardChangedEvent{
		EventID:     uuid.New().String(),
		EventType:   EventTypeBoardChanged,
		UserID:      snap.UserID,
		Backend:     string(snap.Backend),
		Op:          string(snap.Change.Op),
		CategoryKey: snap.Change.CategoryKey,
		ItemKey:     snap.Change.ItemKey,
		Status:      string(snap.Status),
		Timestamp:   p.now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal board event", zap.Error(err))
		return
	}

	key := snap.UserID
	if key == "" {
		key = GuestKey
	}
	msg := kafka.Message{Key: []byte(key), Value: value}

	select {
	case p.queue <- msg:
	default:
		p.logger.Warn("Board event queue full, dropping event",
			zap.String("event_id", event.EventID),
			zap.String("op", event.Op),
		)
	}
}

// Start writes queued events until ctx is done.
func (p *Publisher) Start(ctx context.Context) {
	p.logger.Info("Starting board event publisher")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stopping board event publisher", zap.Int("unsent", len(p.queue)))
			return
		case msg := <-p.queue:
			p.write(ctx, msg)
		}
	}
}

func (p *Publisher) write(ctx context.Context, msg kafka.Message) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		p.logger.Error("Failed to publish board event", zap.ByteString("key", msg.Key), zap.Error(err))
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
