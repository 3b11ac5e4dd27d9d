// Package pubsub is an in-process, topic-keyed broadcast register.
//
// Publishing never blocks: every subscriber owns an unbounded FIFO queue that a
// dedicated goroutine drains into the subscriber's channel. Events reach only the
// subscribers registered at publish time and are never replayed.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrBusClosed is returned by Subscribe once the bus has been closed.
var ErrBusClosed = errors.New("pubsub: bus closed")

// Event is an immutable notification delivered to subscribers of Topic.
type Event struct {
	ID          string
	Topic       string
	Payload     any
	PublishedAt time.Time
}

// Bus fans events out to live subscribers. The zero value is not usable; use New.
type Bus struct {
	logger logrus.FieldLogger

	mu     sync.RWMutex
	topics map[string]map[string]*Subscription
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(logger logrus.FieldLogger) *Bus {
	if logger == nil {
		logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		logger: logger,
		topics: make(map[string]map[string]*Subscription),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Publish enqueues payload for every subscriber currently registered on topic.
func (b *Bus) Publish(topic string, payload any) Event {
	event := Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		Payload:     payload,
		PublishedAt: time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.topics[topic]
	for _, sub := range subs {
		sub.enqueue(event)
	}
	b.logger.WithFields(logrus.Fields{
		"topic":       topic,
		"event_id":    event.ID,
		"subscribers": len(subs),
	}).Debug("event published")
	return event
}

// Subscribe registers interest in topic. The subscription lives until ctx is
// done, Close is called on it, or the bus is closed; its Events channel is then closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	sub := &Subscription{
		id:     uuid.NewString(),
		topic:  topic,
		bus:    b,
		signal: make(chan struct{}, 1),
		events: make(chan Event),
		stop:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[string]*Subscription)
	}
	b.topics[topic][sub.id] = sub
	b.wg.Add(1)
	b.mu.Unlock()

	b.logger.WithFields(logrus.Fields{"topic": topic, "subscriber_id": sub.id}).Debug("subscriber registered")

	go func() {
		defer b.wg.Done()
		sub.pump(ctx, b.ctx)
	}()
	return sub, nil
}

// SubscriberCount reports how many live subscribers topic has.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Close tears down every subscription and waits for their goroutines to exit.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
}

func (b *Bus) unregister(sub *Subscription) {
	b.mu.Lock()
	if subs, ok := b.topics[sub.topic]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(b.topics, sub.topic)
		}
	}
	b.mu.Unlock()

	b.logger.WithFields(logrus.Fields{"topic": sub.topic, "subscriber_id": sub.id}).Debug("subscriber removed")
}

// Subscription is one consumer's live view of a topic.
type Subscription struct {
	id     string
	topic  string
	bus    *Bus
	events chan Event

	mu     sync.Mutex
	queue  []Event
	done   bool
	signal chan struct{}

	stopOnce sync.Once
	stop     chan struct{}
}

// ID identifies the subscription within the bus.
func (s *Subscription) ID() string {
	return s.id
}

// Events yields events in publish order. It is closed on teardown.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Subscription) enqueue(event Event) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Event{}, false
	}
	event := s.queue[0]
	s.queue[0] = Event{}
	s.queue = s.queue[1:]
	return event, true
}

// pump is the only sender on s.events, so it alone closes it.
func (s *Subscription) pump(ctx, busCtx context.Context) {
	defer s.teardown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-busCtx.Done():
			return
		case <-s.stop:
			return
		case <-s.signal:
		}

		for {
			event, ok := s.next()
			if !ok {
				break
			}
			select {
			case s.events <- event:
			case <-ctx.Done():
				return
			case <-busCtx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}
}

func (s *Subscription) teardown() {
	s.bus.unregister(s)

	s.mu.Lock()
	s.done = true
	s.queue = nil
	s.mu.Unlock()

	close(s.events)
}
