package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestCache(t *testing.T) *Cache {
	c := New(WithFetchTimeout(time.Second))
	t.Cleanup(c.Close)
	return c
}

func appendItem(item string) Updater {
	return func(v any) any {
		cur := AsSlice[string](v)
		out := make([]string, 0, len(cur)+1)
		out = append(out, cur...)
		return append(out, item)
	}
}

func TestCache_GetBeforeLoad(t *testing.T) {
	c := newTestCache(t)

	st, ok := c.Get("leads")
	assert.False(t, ok)
	assert.False(t, st.Loaded)
	assert.Nil(t, st.Data)
}

func TestCache_SetNotifiesSubscribers(t *testing.T) {
	c := newTestCache(t)

	var got []State
	unsubscribe := c.Subscribe("deals", func(st State) { got = append(got, st) })

	c.Set("deals", []string{"a"})
	c.Set("other", []string{"ignored"})

	require.Len(t, got, 1)
	assert.Equal(t, []string{"a"}, got[0].Data)
	assert.True(t, got[0].Loaded)

	unsubscribe()
	unsubscribe()
	c.Set("deals", []string{"b"})
	assert.Len(t, got, 1, "no callbacks after unsubscribe")
}

func TestCache_PatchUnloadedIsNoop(t *testing.T) {
	c := newTestCache(t)

	called := false
	ok := c.Patch("leads", func(v any) any { called = true; return v })

	assert.False(t, ok)
	assert.False(t, called)
	_, loaded := c.Get("leads")
	assert.False(t, loaded)
}

func TestCache_PatchLoadedEmpty(t *testing.T) {
	c := newTestCache(t)
	c.Set("leads", []string{})

	ok := c.Patch("leads", appendItem("x"))

	require.True(t, ok)
	items, _ := Items[string](c, "leads")
	assert.Equal(t, []string{"x"}, items)
}

func TestCache_InvalidateKeepsValue(t *testing.T) {
	c := newTestCache(t)
	c.Set("leads", []string{"a"})

	c.Invalidate("leads")

	st, ok := c.Get("leads")
	require.True(t, ok)
	assert.True(t, st.Stale)
	assert.Equal(t, []string{"a"}, st.Data)
}

func TestCache_LayersFoldInIssueOrder(t *testing.T) {
	c := newTestCache(t)
	c.Set("k", []string{"base"})

	_, snap1, ok := c.Apply("k", appendItem("one"))
	require.True(t, ok)
	_, snap2, _ := c.Apply("k", appendItem("two"))

	assert.Equal(t, []string{"base"}, snap1)
	assert.Equal(t, []string{"base", "one"}, snap2, "second layer sees the first")

	items, _ := Items[string](c, "k")
	assert.Equal(t, []string{"base", "one", "two"}, items)

	st, _ := c.Get("k")
	assert.Equal(t, 2, st.Pending)
}

func TestCache_RollbackRestoresSnapshot(t *testing.T) {
	c := newTestCache(t)
	c.Set("k", []string{"base"})

	l, snap, _ := c.Apply("k", appendItem("doomed"))
	restored := c.Rollback(l)

	if diff := cmp.Diff(snap, restored); diff != "" {
		t.Fatalf("rollback mismatch (-snapshot +restored):\n%s", diff)
	}
	st, _ := c.Get("k")
	assert.Equal(t, 0, st.Pending)
}

func TestCache_RollbackKeepsLaterLayers(t *testing.T) {
	c := newTestCache(t)
	c.Set("k", []string{"base"})

	first, _, _ := c.Apply("k", appendItem("first"))
	c.Apply("k", appendItem("second"))

	restored := c.Rollback(first)

	assert.Equal(t, []string{"base", "second"}, restored)
	assert.Equal(t, []string{"base", "second"}, c.Rollback(first), "second rollback is a no-op")
}

func TestCache_SetKeepsPendingDropsSettled(t *testing.T) {
	c := newTestCache(t)
	c.Set("k", []string{})

	settled, _, _ := c.Apply("k", appendItem("confirmed"))
	c.Settle(settled)
	c.Apply("k", appendItem("pending"))

	c.Set("k", []string{"confirmed"})

	items, _ := Items[string](c, "k")
	assert.Equal(t, []string{"confirmed", "pending"}, items)
}

func TestCache_LoadStoresResult(t *testing.T) {
	c := newTestCache(t)
	c.Register("leads", func(ctx context.Context) (any, error) {
		return []string{"srv-1"}, nil
	})

	st, err := c.Load(context.Background(), "leads")

	require.NoError(t, err)
	assert.True(t, st.Loaded)
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"srv-1"}, st.Data)
}

func TestCache_LoadErrorKeepsData(t *testing.T) {
	c := newTestCache(t)
	fail := errors.New("network down")
	calls := 0
	c.Register("leads", func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return []string{"a"}, nil
		}
		return nil, fail
	})

	_, err := c.Load(context.Background(), "leads")
	require.NoError(t, err)

	st, err := c.Load(context.Background(), "leads")
	assert.ErrorIs(t, err, fail)
	assert.ErrorIs(t, st.Err, fail)
	assert.Equal(t, []string{"a"}, st.Data)
}

func TestCache_LoadWithoutFetcher(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Load(context.Background(), "nothing")
	assert.Error(t, err)
}

func TestCache_InvalidateRefetchesForSubscribers(t *testing.T) {
	c := newTestCache(t)
	var version atomic.Int32
	c.Register("deals", func(ctx context.Context) (any, error) {
		return []int32{version.Add(1)}, nil
	})
	_, err := c.Load(context.Background(), "deals")
	require.NoError(t, err)

	var mu sync.Mutex
	var last State
	unsubscribe := c.Subscribe("deals", func(st State) {
		mu.Lock()
		last = st
		mu.Unlock()
	})
	defer unsubscribe()

	c.Invalidate("deals")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return !last.Stale && !last.Loading && cmp.Equal(last.Data, []int32{2})
	}, time.Second, 5*time.Millisecond)
}

func TestCache_InvalidateWithoutSubscribersDefers(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int32
	c.Register("deals", func(ctx context.Context) (any, error) {
		calls.Add(1)
		return []string{}, nil
	})
	_, _ = c.Load(context.Background(), "deals")

	c.Invalidate("deals")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	st := c.Ensure("deals")
	assert.True(t, st.Loading)
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestCache_ConcurrentLoadsShareFetch(t *testing.T) {
	c := newTestCache(t)
	release := make(chan struct{})
	var calls atomic.Int32
	c.Register("events", func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return []string{"e"}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Load(context.Background(), "events")
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	st, _ := c.Get("events")
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"e"}, st.Data)
}

func TestCache_StaleFetchDoesNotOverwriteNewerSet(t *testing.T) {
	c := newTestCache(t)
	started := make(chan struct{})
	release := make(chan struct{})
	c.Register("k", func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return []string{"old"}, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Load(context.Background(), "k")
	}()
	<-started
	c.Set("k", []string{"new"})
	close(release)
	<-done

	items, _ := Items[string](c, "k")
	assert.Equal(t, []string{"new"}, items)
}

func TestCache_LoadAfterRefetchesPastJoinedFetch(t *testing.T) {
	c := newTestCache(t)
	var (
		mu     sync.Mutex
		server []string
	)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	c.Register("leads", func(ctx context.Context) (any, error) {
		if calls.Add(1) == 2 {
			close(started)
			<-release
		}
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), server...), nil
	})
	_, err := c.Load(context.Background(), "leads")
	require.NoError(t, err)

	// A load that starts before the write and reads after it.
	early := make(chan struct{})
	go func() {
		defer close(early)
		_, _ = c.Load(context.Background(), "leads")
	}()
	<-started

	l, _, ok := c.Apply("leads", appendItem("tmp-1"))
	require.True(t, ok)
	mu.Lock()
	server = append(server, "srv-1")
	mu.Unlock()
	c.Settle(l)

	joined := make(chan struct{}, 1)
	unsubscribe := c.Subscribe("leads", func(State) {
		select {
		case joined <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		_, err := c.LoadAfter(context.Background(), l)
		done <- err
	}()
	<-joined
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-done)
	<-early

	items, _ := Items[string](c, "leads")
	assert.Equal(t, []string{"srv-1"}, items)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestCache_LoadAfterRolledBackLayer(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int32
	c.Register("deals", func(ctx context.Context) (any, error) {
		calls.Add(1)
		return []string{"d"}, nil
	})
	_, err := c.Load(context.Background(), "deals")
	require.NoError(t, err)

	l, _, ok := c.Apply("deals", appendItem("tmp"))
	require.True(t, ok)
	c.Rollback(l)

	_, err = c.LoadAfter(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_SubscriberNeverSeesOlderVersion(t *testing.T) {
	c := newTestCache(t)

	var (
		mu   sync.Mutex
		seen []uint64
	)
	unsubscribe := c.Subscribe("deals", func(st State) {
		mu.Lock()
		seen = append(seen, st.Version)
		mu.Unlock()
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Set("deals", []string{"x"})
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
	st, _ := c.Get("deals")
	assert.Equal(t, st.Version, seen[len(seen)-1])
}
