package journal

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu      sync.Mutex
	batches [][]Event
	err     error
}

func (m *mockStore) BatchInsert(ctx context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, append([]Event(nil), events...))
	return nil
}

func (m *mockStore) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

type flushCounter struct {
	mu     sync.Mutex
	count  int
	failed int
}

func (f *flushCounter) ObserveJournalFlush(count int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count += count
	if err != nil {
		f.failed++
	}
}

// gatedStore holds every BatchInsert until release is closed.
type gatedStore struct {
	mockStore
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) BatchInsert(ctx context.Context, events []Event) error {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.mockStore.BatchInsert(ctx, events)
}

func sampleEvent(ev string) Event {
	return Event{SessionID: "s1", From: "logged_out", To: "dashboard", Event: ev, At: time.Now()}
}

// run starts c and returns a function that stops it and waits for the
// final flush.
func run(c *Collector) func() {
	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()
	return func() {
		c.Stop()
		<-done
	}
}

func TestCollectorBuffersUntilBatchSize(t *testing.T) {
	ms := &mockStore{}
	c := NewCollector(ms, 3, time.Hour)
	stop := run(c)
	defer stop()

	c.Record(sampleEvent("login"))
	c.Record(sampleEvent("select_offer"))
	assert.Zero(t, ms.total())
	assert.Equal(t, 2, c.Pending())

	c.Record(sampleEvent("submit_payment"))
	require.Eventually(t, func() bool { return ms.total() == 3 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, c.Pending())
}

func TestCollectorRecordDoesNotWaitForStore(t *testing.T) {
	gs := &gatedStore{entered: make(chan struct{}, 1), release: make(chan struct{})}
	c := NewCollector(gs, 1, time.Hour)
	stop := run(c)

	c.Record(sampleEvent("login"))
	select {
	case <-gs.entered:
	case <-time.After(time.Second):
		t.Fatal("full batch was not flushed")
	}

	recorded := make(chan struct{})
	go func() {
		for range 5 {
			c.Record(sampleEvent("select_offer"))
		}
		close(recorded)
	}()
	select {
	case <-recorded:
	case <-time.After(time.Second):
		t.Fatal("Record blocked while the store was busy")
	}
	assert.Equal(t, 5, c.Pending())

	close(gs.release)
	stop()
	assert.Equal(t, 6, gs.total())
}

func TestCollectorRecordTransition(t *testing.T) {
	ms := &mockStore{}
	c := NewCollector(ms, 1, time.Hour)
	stop := run(c)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("WAT", 3600))

	c.RecordTransition("abc", "payment", "logged_out", "completion_failed", "bad credentials", at)
	stop()

	require.Len(t, ms.batches, 1)
	e := ms.batches[0][0]
	assert.Equal(t, "abc", e.SessionID)
	assert.Equal(t, "completion_failed", e.Event)
	assert.True(t, e.Failed())
	assert.Equal(t, time.UTC, e.At.Location())
	assert.True(t, at.Equal(e.At))
}

func TestCollectorStopFlushes(t *testing.T) {
	ms := &mockStore{}
	c := NewCollector(ms, 100, time.Hour)

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	c.Record(sampleEvent("login"))
	c.Record(sampleEvent("logout"))
	c.Stop()
	c.Stop()
	<-done

	assert.Equal(t, 2, ms.total())
}

func TestCollectorContextCancelFlushes(t *testing.T) {
	ms := &mockStore{}
	c := NewCollector(ms, 100, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	c.Record(sampleEvent("login"))
	cancel()
	<-done

	assert.Equal(t, 1, ms.total())
}

func TestCollectorTimerFlush(t *testing.T) {
	ms := &mockStore{}
	c := NewCollector(ms, 100, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)

	c.Record(sampleEvent("login"))

	require.Eventually(t, func() bool { return ms.total() == 1 }, time.Second, 10*time.Millisecond)
	c.Stop()
}

func TestCollectorConcurrentRecords(t *testing.T) {
	ms := &mockStore{}
	c := NewCollector(ms, 10, time.Hour)
	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(sampleEvent("select_offer"))
		}()
	}
	wg.Wait()
	c.Stop()
	<-done

	assert.Equal(t, 50, ms.total())
}

func TestCollectorObserver(t *testing.T) {
	ms := &mockStore{err: errors.New("db down")}
	fc := &flushCounter{}
	c := NewCollector(ms, 2, time.Hour)
	c.SetObserver(fc)
	stop := run(c)

	c.Record(sampleEvent("login"))
	c.Record(sampleEvent("login"))
	stop()

	assert.Equal(t, 2, fc.count)
	assert.Equal(t, 1, fc.failed)
	assert.Zero(t, c.Pending(), "failed batches are dropped")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	err := sink.BatchInsert(context.Background(), []Event{
		sampleEvent("login"),
		{SessionID: "s2", From: "payment", To: "payment", Event: "submit_payment", Error: "declined", At: time.Now()},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=onboarding session=s1")
	assert.Contains(t, out, "level=WARN msg=onboarding session=s2")
	assert.Contains(t, out, "error=declined")
}
