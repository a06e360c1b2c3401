package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"outmentor/contract"
	"outmentor/domain"
	"outmentor/errors"
	"outmentor/repositories"

	"github.com/google/uuid"
)

// Hub keeps the live subscribers of every connection channel.
//
// Each channel has its own mutex; the hub mutex only guards the channel map and
// reference counts. Lock order is always channel.mu, then hub.mu.
type Hub struct {
	mu        sync.Mutex
	log       *slog.Logger
	store     repositories.IMessageRepository
	channels  map[uuid.UUID]*channel
	queueSize int
	nextID    atomic.Uint64
}

type channel struct {
	id          uuid.UUID
	mu          sync.Mutex
	subscribers map[uint64]*Subscription
	refs        int // guarded by Hub.mu
}

func NewHub(log *slog.Logger, store repositories.IMessageRepository, queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Hub{
		log:       log,
		store:     store,
		channels:  make(map[uuid.UUID]*channel),
		queueSize: queueSize,
	}
}

// acquire returns the channel entry of a connection, creating it on the fly,
// and takes one reference on it.
func (h *Hub) acquire(id uuid.UUID) *channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.channels[id]
	if !ok {
		ch = &channel{id: id, subscribers: make(map[uint64]*Subscription)}
		h.channels[id] = ch
	}
	ch.refs++
	return ch
}

// release drops one reference; the entry is removed once nobody uses it.
func (h *Hub) release(ch *channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch.refs--
	if ch.refs == 0 && h.channels[ch.id] == ch {
		delete(h.channels, ch.id)
	}
}

// Publish appends a message durably, then offers it to every live subscriber of the connection.
// Appends of one connection are serialized by its channel mutex, so the enqueue order is the sequence order.
// A subscriber whose queue is full is dropped with ErrResourceExhausted; the sender is never blocked by it.
func (h *Hub) Publish(ctx context.Context, message domain.Message) (domain.Message, error) {
	ch := h.acquire(message.ConnectionID)
	defer h.release(ch)

	ch.mu.Lock()
	defer ch.mu.Unlock()

	stored, err := h.store.Append(ctx, message)
	if err != nil {
		return domain.Message{}, err
	}

	for id, sub := range ch.subscribers {
		if sub.offer(stored) {
			continue
		}
		delete(ch.subscribers, id)
		h.log.Warn("Subscriber queue full, dropping", "connection", ch.id, "subscription", id)
		sub.terminate(fmt.Errorf("%w: subscriber queue of %d messages is full", errors.ErrResourceExhausted, h.queueSize))
	}
	return stored, nil
}

// Subscribe registers a subscriber first, then reads the backfill without holding the channel mutex.
// Messages appended in between reach both the backfill and the live queue; the pump skips
// live messages whose sequence is already covered.
func (h *Hub) Subscribe(ctx context.Context, connectionID uuid.UUID) (contract.ISubscription, error) {
	ch := h.acquire(connectionID)
	sub := &Subscription{
		id:    h.nextID.Add(1),
		hub:   h,
		ch:    ch,
		queue: make(chan domain.Message, h.queueSize),
		out:   make(chan domain.Message),
		done:  make(chan struct{}),
	}
	sub.Touch()

	ch.mu.Lock()
	ch.subscribers[sub.id] = sub
	ch.mu.Unlock()

	backfill, err := h.backfill(ctx, connectionID)
	if err != nil {
		sub.close(err)
		return nil, err
	}

	go sub.pump(backfill)
	return sub, nil
}

// backfill pages through the whole log, since the store may cap a single read.
func (h *Hub) backfill(ctx context.Context, connectionID uuid.UUID) ([]domain.Message, error) {
	var (
		res   []domain.Message
		after uint64
	)
	for {
		page, err := h.store.List(ctx, connectionID, after)
		if err != nil {
			return nil, fmt.Errorf("load backfill: %w", err)
		}
		if len(page) == 0 {
			return res, nil
		}
		res = append(res, page...)
		after = page[len(page)-1].Seq
	}
}

// snapshot copies the current channel entries so callers can lock them one by one.
func (h *Hub) snapshot() []*channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	res := make([]*channel, 0, len(h.channels))
	for _, ch := range h.channels {
		res = append(res, ch)
	}
	return res
}

// ReapIdle ends every subscription without activity for longer than maxIdle.
func (h *Hub) ReapIdle(maxIdle time.Duration) int {
	deadline := time.Now().Add(-maxIdle).UnixNano()
	var idle []*Subscription
	for _, ch := range h.snapshot() {
		ch.mu.Lock()
		for id, sub := range ch.subscribers {
			if sub.lastActivity.Load() < deadline {
				delete(ch.subscribers, id)
				idle = append(idle, sub)
			}
		}
		ch.mu.Unlock()
	}
	for _, sub := range idle {
		sub.terminate(fmt.Errorf("%w: no activity for %s", errors.ErrSubscriptionIdle, maxIdle))
	}
	return len(idle)
}

// Shutdown ends every live subscription, typically when the process stops.
func (h *Hub) Shutdown() {
	var all []*Subscription
	for _, ch := range h.snapshot() {
		ch.mu.Lock()
		for id, sub := range ch.subscribers {
			delete(ch.subscribers, id)
			all = append(all, sub)
		}
		ch.mu.Unlock()
	}
	for _, sub := range all {
		sub.terminate(fmt.Errorf("%w: server shutting down", errors.ErrUnavailable))
	}
}

func (h *Hub) Stats() contract.HubStats {
	var stats contract.HubStats
	for _, ch := range h.snapshot() {
		stats.Channels++
		ch.mu.Lock()
		stats.Subscribers += len(ch.subscribers)
		for _, sub := range ch.subscribers {
			stats.Queued += len(sub.queue)
		}
		ch.mu.Unlock()
	}
	return stats
}

// Subscription is served by one pump goroutine: backfill first, then the live queue.
type Subscription struct {
	id           uint64
	hub          *Hub
	ch           *channel
	queue        chan domain.Message
	out          chan domain.Message
	done         chan struct{}
	ended        atomic.Bool
	err          error // written once, before done is closed
	lastActivity atomic.Int64
}

func (s *Subscription) Messages() <-chan domain.Message { return s.out }

func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

func (s *Subscription) Touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Cancel is immediate and idempotent.
func (s *Subscription) Cancel() {
	s.close(nil)
}

// offer is a non-blocking enqueue, called with the channel mutex held.
func (s *Subscription) offer(message domain.Message) bool {
	select {
	case s.queue <- message:
		return true
	default:
		return false
	}
}

// close detaches the subscriber from its channel, then ends it.
func (s *Subscription) close(err error) {
	s.ch.mu.Lock()
	delete(s.ch.subscribers, s.id)
	s.ch.mu.Unlock()
	s.terminate(err)
}

// terminate must not take the channel mutex: Publish calls it while holding it.
func (s *Subscription) terminate(err error) {
	if !s.ended.CompareAndSwap(false, true) {
		return
	}
	s.err = err
	close(s.done)
	s.hub.release(s.ch)
}

func (s *Subscription) pump(backfill []domain.Message) {
	defer close(s.out)

	var last uint64
	for _, message := range backfill {
		if !s.deliver(message) {
			return
		}
		last = message.Seq
	}

	for {
		select {
		case <-s.done:
			return
		case message := <-s.queue:
			if message.Seq <= last {
				continue
			}
			if !s.deliver(message) {
				return
			}
			last = message.Seq
		}
	}
}

func (s *Subscription) deliver(message domain.Message) bool {
	select {
	case s.out <- message:
		s.Touch()
		return true
	case <-s.done:
		return false
	}
}
