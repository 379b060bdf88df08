package events

import (
	"context"
	"sync"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
	apperrors "github.com/portoseguro/backend/pkg/errors"
)

// MemoryEventBus is an in-process EventBus for single-node runs without Redis.
// Delivery semantics match RedisEventBus: fan-out to every live subscriber,
// drop on a full subscriber queue.
type MemoryEventBus struct {
	queues *fanout

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewMemoryEventBus creates a new in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{
		queues: newFanout(),
		done:   make(chan struct{}),
	}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

func (b *MemoryEventBus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Publish delivers the event to the current subscribers of channel.
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.DiaryEvent) error {
	if b.isClosed() {
		return apperrors.NewInternalError("event bus is closed", nil)
	}
	b.queues.send(channel, event)
	return nil
}

// Subscribe returns a channel closed when ctx is done, on Unsubscribe or on Close.
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DiaryEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, apperrors.NewInternalError("event bus is closed", nil)
	}
	q, _ := b.queues.add(channel)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		select {
		case <-ctx.Done():
			b.queues.remove(channel, q)
		case <-b.done:
		}
	}()

	return q, nil
}

// Unsubscribe closes every subscriber of channel.
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.queues.closeChannel(channel)
	return nil
}

// Close closes all subscriptions and waits for the watcher goroutines.
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()

	b.queues.closeAll()
	b.wg.Wait()
	return nil
}
