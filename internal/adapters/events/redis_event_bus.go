package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
	redisclient "github.com/portoseguro/backend/internal/infrastructure/clients/redis"
)

// RedisEventBus implements the EventBus interface using Redis Pub/Sub.
// One Redis subscription per channel feeds every local subscriber, so API
// and import processes sharing a Redis see each other's writes.
type RedisEventBus struct {
	client *redisclient.Client
	queues *fanout

	mu            sync.Mutex
	subscriptions map[string]*redis.PubSub

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		queues:        newFanout(),
		subscriptions: make(map[string]*redis.PubSub),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.DiaryEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("event_type", string(event.EventType)).
		Msg("published event")
	return nil
}

// Subscribe subscribes to events on a channel. The returned channel is
// closed when ctx is done, on Unsubscribe or on Close.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DiaryEvent, error) {
	b.mu.Lock()
	if err := b.ctx.Err(); err != nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("event bus is closed: %w", err)
	}
	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		b.subscriptions[channel] = pubsub
		go b.receive(channel, pubsub)
	}
	q, count := b.queues.add(channel)
	b.mu.Unlock()

	log.Info().Str("channel", channel).Int("subscribers", count).Msg("subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.drop(channel, q)
	}()

	return q, nil
}

// receive forwards Redis messages to the local queues until pubsub closes.
func (b *RedisEventBus) receive(channel string, pubsub *redis.PubSub) {
	defer func() {
		// Whoever removes a pubsub from the map closes it.
		b.mu.Lock()
		owner := b.subscriptions[channel] == pubsub
		if owner {
			delete(b.subscriptions, channel)
			b.queues.closeChannel(channel)
		}
		b.mu.Unlock()
		if owner {
			_ = pubsub.Close()
		}
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event entities.DiaryEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("failed to unmarshal event")
				continue
			}
			b.queues.send(channel, &event)
		}
	}
}

// drop removes one local subscriber and releases the Redis subscription
// with the last one.
func (b *RedisEventBus) drop(channel string, q chan *entities.DiaryEvent) {
	b.mu.Lock()
	var pubsub *redis.PubSub
	if b.queues.remove(channel, q) {
		pubsub = b.subscriptions[channel]
		delete(b.subscriptions, channel)
	}
	b.mu.Unlock()

	if err := closePubSub(channel, pubsub); err != nil {
		log.Warn().Err(err).Msg("failed to release subscription")
	}
}

// Unsubscribe closes every local subscriber of channel.
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	pubsub := b.subscriptions[channel]
	delete(b.subscriptions, channel)
	b.queues.closeChannel(channel)
	b.mu.Unlock()

	if err := closePubSub(channel, pubsub); err != nil {
		return err
	}
	log.Info().Str("channel", channel).Msg("unsubscribed from channel")
	return nil
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	subscriptions := b.subscriptions
	b.subscriptions = make(map[string]*redis.PubSub)
	b.queues.closeAll()
	b.mu.Unlock()

	var errs []error
	for channel, pubsub := range subscriptions {
		if err := closePubSub(channel, pubsub); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("errors closing event bus: %w", err)
	}

	log.Info().Msg("event bus closed")
	return nil
}

func closePubSub(channel string, pubsub *redis.PubSub) error {
	if pubsub == nil {
		return nil
	}
	if err := pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	log.Debug().Str("channel", channel).Msg("closed subscription")
	return nil
}
