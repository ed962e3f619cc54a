package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"movietrack/internal/queue"
	"movietrack/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// MockPrefetcher records prefetched movie ids.
type MockPrefetcher struct {
	mu      sync.Mutex
	fetched []string
	failFor map[string]bool
}

func (m *MockPrefetcher) Prefetch(ctx context.Context, movieID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[movieID] {
		return errors.New("upstream down")
	}
	m.fetched = append(m.fetched, movieID)
	return nil
}

func (m *MockPrefetcher) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}

// MockConsumer is an in-memory stream: pending messages are handed out
// first, then fresh ones, and acks are recorded.
type MockConsumer struct {
	mu      sync.Mutex
	pending []queue.Message
	fresh   []queue.Message
	acked   []string
	groups  int
}

func (c *MockConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups++
	return nil
}

func (c *MockConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]queue.Message, error) {
	c.mu.Lock()
	if len(c.fresh) > 0 {
		msgs := c.fresh
		c.fresh = nil
		c.mu.Unlock()
		return msgs, nil
	}
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(block):
		return nil, nil
	}
}

func (c *MockConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]queue.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.pending
	c.pending = nil
	return msgs, nil
}

func (c *MockConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, messageIDs...)
	return nil
}

func (c *MockConsumer) Pending(ctx context.Context, stream, group string) (int64, error) {
	return 0, nil
}

func (c *MockConsumer) Acked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.acked...)
}

// =============================================================================
// Test Helpers
// =============================================================================

func msg(id, eventType, movieID string) queue.Message {
	return queue.Message{ID: id, Event: queue.NewListEvent(eventType, "u1", movieID)}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// =============================================================================
// Tests
// =============================================================================

func TestHandler_PrefetchesListedMovies(t *testing.T) {
	p := &MockPrefetcher{}
	h := worker.NewHandler(p, zap.NewNop())
	ctx := context.Background()

	for _, et := range []string{queue.EventMovieListed, queue.EventCurrentlyWatching, queue.EventReviewUpserted} {
		if err := h.HandleEvent(ctx, queue.NewListEvent(et, "u1", "tt0111161")); err != nil {
			t.Errorf("HandleEvent(%s) failed: %v", et, err)
		}
	}
	if got := p.Fetched(); len(got) != 3 {
		t.Errorf("prefetched %v, want 3 calls", got)
	}
}

func TestHandler_RejectsBadEvents(t *testing.T) {
	p := &MockPrefetcher{}
	h := worker.NewHandler(p, zap.NewNop())

	if err := h.HandleEvent(context.Background(), queue.NewListEvent("post_created", "u1", "tt1")); err == nil {
		t.Error("expected error for unknown event type")
	}
	if err := h.HandleEvent(context.Background(), queue.NewListEvent(queue.EventMovieListed, "u1", "")); err == nil {
		t.Error("expected error for missing movie id")
	}
	if len(p.Fetched()) != 0 {
		t.Error("bad events must not prefetch")
	}
}

func TestManager_ProcessesPendingThenNewAndAcksAll(t *testing.T) {
	consumer := &MockConsumer{
		pending: []queue.Message{msg("1-0", queue.EventMovieListed, "tt1")},
		fresh: []queue.Message{
			msg("2-0", queue.EventReviewUpserted, "tt2"),
			msg("3-0", queue.EventCurrentlyWatching, "bad"),
		},
	}
	p := &MockPrefetcher{failFor: map[string]bool{"bad": true}}

	m := worker.NewManager(consumer, worker.NewHandler(p, zap.NewNop()), worker.ManagerConfig{
		WorkerCount:  1,
		BlockTimeout: 20 * time.Millisecond,
	}, zap.NewNop())

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, func() bool { return len(consumer.Acked()) == 3 })
	m.Stop()

	if got := p.Fetched(); len(got) != 2 || got[0] != "tt1" || got[1] != "tt2" {
		t.Errorf("prefetched %v, want [tt1 tt2]", got)
	}
	// Failed messages are acked too
	acked := consumer.Acked()
	if acked[2] != "3-0" {
		t.Errorf("acked = %v", acked)
	}
	if consumer.groups != 1 {
		t.Errorf("EnsureGroup called %d times, want 1", consumer.groups)
	}
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := worker.NewManager(&MockConsumer{}, worker.NewHandler(&MockPrefetcher{}, zap.NewNop()), worker.DefaultManagerConfig(), zap.NewNop())
	m.Stop()
}
