package watermillbus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	wsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/arkade-os/tgpay/internal/core/domain"
	"github.com/arkade-os/tgpay/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const (
	ledgerTopic = "ledger"
	bufferSize  = 100
)

type eventDTO struct {
	Type       domain.EventType   `json:"type"`
	Attributes []domain.Attribute `json:"attributes"`
}

type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

// NewEventBus returns an in-process bus. Events published before a subscription are lost.
func NewEventBus() ports.EventBus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: bufferSize,
		// Waiting for acks keeps events in publication order.
		BlockPublishUntilSubscriberAck: true,
	}, newLogger())
	return &eventBus{pubsub, pubsub}
}

// NewPostgresEventBus returns a bus persisting events in postgres. Subscriptions sharing the
// consumer group resume from the last acked event, so nothing is lost across restarts.
func NewPostgresEventBus(db *sql.DB, consumerGroup string) (ports.EventBus, error) {
	if db == nil {
		return nil, fmt.Errorf("missing db")
	}
	logger := newLogger()

	publisher, err := wsql.NewPublisher(
		db,
		wsql.PublisherConfig{
			SchemaAdapter:        wsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	subscriber, err := wsql.NewSubscriber(
		db,
		wsql.SubscriberConfig{
			ConsumerGroup:    consumerGroup,
			SchemaAdapter:    wsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   wsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
		},
		logger,
	)
	if err != nil {
		//nolint:errcheck
		publisher.Close()
		return nil, fmt.Errorf("failed to create event subscriber: %w", err)
	}

	return &eventBus{publisher, subscriber}, nil
}

func (b *eventBus) Publish(ctx context.Context, events ...domain.Event) error {
	msgs := make([]*message.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(eventDTO{event.GetType(), event.Attributes()})
		if err != nil {
			return fmt.Errorf("failed to serialize %s event: %w", event.GetType(), err)
		}
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set("type", string(event.GetType()))
		msg.SetContext(ctx)
		msgs = append(msgs, msg)
	}
	return b.publisher.Publish(ledgerTopic, msgs...)
}

func (b *eventBus) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	msgs, err := b.subscriber.Subscribe(ctx, ledgerTopic)
	if err != nil {
		return nil, err
	}

	ch := make(chan domain.Event, bufferSize)
	go func() {
		defer close(ch)
		for msg := range msgs {
			event, err := deserializeEvent(msg.Payload)
			msg.Ack()
			if err != nil {
				log.WithError(err).Warn("dropping undecodable ledger event")
				continue
			}
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (b *eventBus) Close() error {
	if err := b.publisher.Close(); err != nil {
		return err
	}
	return b.subscriber.Close()
}

func deserializeEvent(buf []byte) (domain.Event, error) {
	var dto eventDTO
	if err := json.Unmarshal(buf, &dto); err != nil {
		return nil, err
	}
	event, ok := domain.ParseEvent(dto.Type, dto.Attributes)
	if !ok {
		return nil, fmt.Errorf("unknown event %s", dto.Type)
	}
	return event, nil
}
