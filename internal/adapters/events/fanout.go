package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/domain/entities"
)

// subscriberBuffer is the per-subscriber queue; a full queue drops events.
const subscriberBuffer = 100

// fanout holds the local subscriber queues of each channel. Queues are
// closed under the same lock that guards sends.
type fanout struct {
	mu     sync.Mutex
	queues map[string]map[chan *entities.DiaryEvent]struct{}
}

func newFanout() *fanout {
	return &fanout{queues: make(map[string]map[chan *entities.DiaryEvent]struct{})}
}

// add registers a new queue and returns it with the channel's queue count.
func (f *fanout) add(channel string) (chan *entities.DiaryEvent, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queues[channel] == nil {
		f.queues[channel] = make(map[chan *entities.DiaryEvent]struct{})
	}
	q := make(chan *entities.DiaryEvent, subscriberBuffer)
	f.queues[channel][q] = struct{}{}
	return q, len(f.queues[channel])
}

func (f *fanout) send(channel string, event *entities.DiaryEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for q := range f.queues[channel] {
		select {
		case q <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber queue full, dropping event")
		}
	}
}

// remove closes q. It reports true when q was the channel's last queue.
func (f *fanout) remove(channel string, q chan *entities.DiaryEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := f.queues[channel]
	if _, ok := set[q]; !ok {
		return false
	}
	delete(set, q)
	close(q)
	if len(set) > 0 {
		return false
	}
	delete(f.queues, channel)
	return true
}

func (f *fanout) closeChannel(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked(channel)
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for channel := range f.queues {
		f.closeLocked(channel)
	}
}

func (f *fanout) closeLocked(channel string) {
	for q := range f.queues[channel] {
		close(q)
	}
	delete(f.queues, channel)
}
