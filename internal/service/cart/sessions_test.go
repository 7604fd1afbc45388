package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techzone-storefront/internal/domain"
)

func newTestSessions(remote *memoryRemote, devices map[string]*MemoryDeviceStore) *Sessions {
	return NewSessions(func(id string) DeviceStore {
		if d, ok := devices[id]; ok {
			return d
		}
		d := NewMemoryDeviceStore()
		devices[id] = d
		return d
	}, remote, memoryCatalog{}, testOptions())
}

func TestSessionsReuseStorePerDevice(t *testing.T) {
	sessions := newTestSessions(newMemoryRemote(), map[string]*MemoryDeviceStore{})
	defer sessions.Close(context.Background())

	a := sessions.Get("dev-1")
	assert.Same(t, a, sessions.Get("dev-1"))
	assert.NotSame(t, a, sessions.Get("dev-2"))
	assert.Equal(t, 2, sessions.Len())
}

func TestSessionsSignInAndOut(t *testing.T) {
	remote := newMemoryRemote()
	remote.seed("user-1", domain.Item{ProductID: "B", Quantity: 1})
	devices := map[string]*MemoryDeviceStore{"dev-1": NewMemoryDeviceStore(line("A", 1, "1.00"))}
	sessions := newTestSessions(remote, devices)
	defer sessions.Close(context.Background())

	sessions.OnSignIn(context.Background(), "dev-1", "user-1")
	st := sessions.Get("dev-1")
	assert.Equal(t, StateAuthenticated, st.State())
	assert.Equal(t, map[string]int{"A": 1, "B": 1}, quantities(st.Lines()))

	sessions.OnSignOut(context.Background(), "dev-1")
	assert.Equal(t, StateAnonymous, st.State())
	assert.True(t, st.IsEmpty())

	sessions.OnSignOut(context.Background(), "unknown")
	assert.Equal(t, 1, sessions.Len())
}

func TestSessionsEvictIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })

	remote := newMemoryRemote()
	sessions := newTestSessions(remote, map[string]*MemoryDeviceStore{})
	defer sessions.Close(context.Background())

	stale := sessions.Get("stale")
	require.Equal(t, SyncCompleted, stale.SignIn(context.Background(), "user-1"))
	stale.AddItem(line("A", 2, "1.00"))

	now = now.Add(time.Hour)
	sessions.Get("fresh").AddItem(line("B", 1, "1.00"))

	evicted := sessions.Evict(context.Background(), 30*time.Minute)

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, sessions.Len())
	// Pending writes are drained on eviction.
	assert.Equal(t, map[string]int{"A": 2}, remote.quantities("user-1"))
	assert.NotSame(t, stale, sessions.Get("stale"))
}

func TestSessionsClose(t *testing.T) {
	remote := newMemoryRemote()
	sessions := newTestSessions(remote, map[string]*MemoryDeviceStore{})
	st := sessions.Get("dev-1")
	require.Equal(t, SyncCompleted, st.SignIn(context.Background(), "user-1"))
	st.AddItem(line("A", 1, "1.00"))

	require.NoError(t, sessions.Close(context.Background()))

	assert.Equal(t, 0, sessions.Len())
	assert.Equal(t, map[string]int{"A": 1}, remote.quantities("user-1"))
}

func TestEvictKeepsWatchedAndRecentlyUsedStores(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })

	sessions := newTestSessions(newMemoryRemote(), map[string]*MemoryDeviceStore{})
	defer sessions.Close(context.Background())

	watched := sessions.Get("watched")
	_, cancel := watched.Subscribe()
	reused := sessions.Get("reused")

	now = now.Add(time.Hour)
	assert.Same(t, reused, sessions.Get("reused"))

	assert.Equal(t, 0, sessions.Evict(context.Background(), 30*time.Minute))
	assert.Equal(t, 2, sessions.Len())

	cancel()
	now = now.Add(time.Hour)
	assert.Equal(t, 2, sessions.Evict(context.Background(), 30*time.Minute))
	assert.NotSame(t, watched, sessions.Get("watched"))
}

// testClock is a settable clock safe to read from a running sync.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestEvictKeepsSyncingStore(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	timeNow = clock.Now
	t.Cleanup(func() { timeNow = time.Now })

	remote := newMemoryRemote()
	remote.block = make(chan struct{})
	devices := map[string]*MemoryDeviceStore{"dev-1": NewMemoryDeviceStore(line("A", 1, "1.00"))}
	sessions := newTestSessions(remote, devices)
	defer sessions.Close(context.Background())

	st := sessions.Get("dev-1")
	done := make(chan SyncResult, 1)
	go func() { done <- st.SignIn(context.Background(), "user-1") }()
	require.Eventually(t, func() bool { return len(remote.callLog()) == 1 }, time.Second, time.Millisecond)

	clock.advance(time.Hour)
	assert.Equal(t, 0, sessions.Evict(context.Background(), 30*time.Minute))

	close(remote.block)
	require.Equal(t, SyncCompleted, <-done)
	assert.Same(t, st, sessions.Get("dev-1"))
	assert.Equal(t, map[string]int{"A": 1}, remote.quantities("user-1"))
}
