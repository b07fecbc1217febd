// Package journal keeps a durable record of onboarding transitions.
package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BatchInserter persists a batch of events.
type BatchInserter interface {
	BatchInsert(ctx context.Context, events []Event) error
}

// FlushObserver is told about every flush attempt.
type FlushObserver interface {
	ObserveJournalFlush(count int, err error)
}

// Collector buffers events in memory and flushes them in batches when the
// buffer reaches batchSize or every flushInterval. Flushes only happen on
// the Start goroutine, so Record never waits for the store. It is safe for
// concurrent use.
type Collector struct {
	store         BatchInserter
	observer      FlushObserver
	buffer        []Event
	mu            sync.Mutex
	batchSize     int
	flushInterval time.Duration
	full          chan struct{}
	done          chan struct{}
	stopOnce      sync.Once
}

func NewCollector(store BatchInserter, batchSize int, flushInterval time.Duration) *Collector {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Collector{
		store:         store,
		buffer:        make([]Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		full:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

// SetObserver registers o for flush outcomes. Call before Start.
func (c *Collector) SetObserver(o FlushObserver) {
	c.observer = o
}

// Start flushes on a timer until Stop is called or ctx is cancelled, then
// flushes once more.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.full:
			c.flush()
		case <-ctx.Done():
			c.flush()
			return
		case <-c.done:
			c.flush()
			return
		}
	}
}

// Record buffers e and wakes Start once the batch is full.
func (c *Collector) Record(e Event) {
	c.mu.Lock()
	c.buffer = append(c.buffer, e)
	batchFull := len(c.buffer) >= c.batchSize
	c.mu.Unlock()

	if batchFull {
		select {
		case c.full <- struct{}{}:
		default:
		}
	}
}

// RecordTransition adapts Record to the orchestrator's recorder hook.
func (c *Collector) RecordTransition(sessionID, from, to, event, errMsg string, at time.Time) {
	c.Record(Event{
		SessionID: sessionID,
		From:      from,
		To:        to,
		Event:     event,
		Error:     errMsg,
		At:        at.UTC(),
	})
}

// Pending returns the number of buffered events.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// flush drains the buffer. Errors are logged so callers never block on the
// store; the failed batch is dropped.
func (c *Collector) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]Event, 0, c.batchSize)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := c.store.BatchInsert(ctx, batch)
	if err != nil {
		slog.Error("failed to flush onboarding journal", "count", len(batch), "error", err)
	}
	if c.observer != nil {
		c.observer.ObserveJournalFlush(len(batch), err)
	}
}

// Stop ends Start. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}
