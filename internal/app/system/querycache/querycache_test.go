package querycache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/fwsm/internal/app/system/querycache"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T) (*querycache.Cache, *fakeClock) {
	t.Helper()
	c := querycache.New(querycache.Config{TTL: time.Minute, FailureTTL: 10 * time.Second, MaxEntries: 16})
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	querycache.SetClock(c, clock.Now)
	return c, clock
}

// counter returns a fetch func that counts calls and returns val.
func counter(calls *atomic.Int32, val string, err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		calls.Add(1)
		return val, err
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFetch_CachesValue(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32
	key := querycache.K(querycache.Sectors)

	for i := 0; i < 3; i++ {
		v, err := querycache.Fetch(context.Background(), c, key, counter(&calls, "sectors", nil))
		if err != nil || v != "sectors" {
			t.Fatalf("fetch %d: got %q, %v", i, v, err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 backend call, got %d", n)
	}
	if s := c.Stats(); s.Hits != 2 || s.Misses != 1 || s.Entries != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestFetch_CollapsesConcurrentCalls(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "profile", nil
	}
	key := querycache.K(querycache.OrganizationProfile, 7)

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := querycache.Fetch(context.Background(), c, key, fetch)
			if err != nil {
				t.Errorf("fetch: %v", err)
			}
			results[i] = v
		}(i)
	}

	waitFor(t, func() bool { return c.Stats().Misses == 2 })
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected one backend call for concurrent reads, got %d", n)
	}
	if results[0] != "profile" || results[1] != "profile" {
		t.Errorf("both readers should see the result, got %v", results)
	}
	if s := c.Stats(); s.Collapsed == 0 {
		t.Errorf("expected collapsed calls in stats, got %+v", s)
	}
}

func TestInvalidate_Refetches(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32
	key := querycache.K(querycache.CurrentOrganization, "fp")

	_, _ = querycache.Fetch(context.Background(), c, key, counter(&calls, "old", nil))
	c.Invalidate(querycache.CurrentOrganization, querycache.OrganizationProfile)
	v, err := querycache.Fetch(context.Background(), c, key, counter(&calls, "new", nil))

	if err != nil || v != "new" {
		t.Errorf("expected refetched value, got %q, %v", v, err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 calls, got %d", n)
	}
}

func TestInvalidate_LeavesOtherResources(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32
	key := querycache.K(querycache.Sectors)

	_, _ = querycache.Fetch(context.Background(), c, key, counter(&calls, "s", nil))
	c.Invalidate(querycache.CurrentUser)
	_, _ = querycache.Fetch(context.Background(), c, key, counter(&calls, "s", nil))

	if n := calls.Load(); n != 1 {
		t.Errorf("unrelated invalidation caused a refetch: %d calls", n)
	}
}

func TestInvalidate_DiscardsInFlightResult(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	key := querycache.K(querycache.CurrentOrganization, "fp")

	done := make(chan string)
	go func() {
		v, _ := querycache.Fetch(context.Background(), c, key, func(context.Context) (string, error) {
			calls.Add(1)
			close(started)
			<-release
			return "stale", nil
		})
		done <- v
	}()

	<-started
	c.Invalidate(querycache.CurrentOrganization)
	close(release)
	if v := <-done; v != "stale" {
		t.Errorf("in-flight caller should still receive its result, got %q", v)
	}

	v, _ := querycache.Fetch(context.Background(), c, key, counter(&calls, "fresh", nil))
	if v != "fresh" {
		t.Errorf("expected result fetched after invalidation, got %q", v)
	}
	if s := c.Stats(); s.Discarded != 1 {
		t.Errorf("expected one discarded result, got %+v", s)
	}
}

func TestFetch_CachesFailureForRetryWindow(t *testing.T) {
	c, clock := newTestCache(t)
	var calls atomic.Int32
	boom := errors.New("backend down")
	key := querycache.K(querycache.HomePage)

	for i := 0; i < 2; i++ {
		if _, err := querycache.Fetch(context.Background(), c, key, counter(&calls, "", boom)); !errors.Is(err, boom) {
			t.Fatalf("fetch %d: expected failure, got %v", i, err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("failure should be cached, got %d calls", n)
	}

	clock.Advance(11 * time.Second)
	v, err := querycache.Fetch(context.Background(), c, key, counter(&calls, "home", nil))
	if err != nil || v != "home" {
		t.Errorf("expected retry after failure window, got %q, %v", v, err)
	}
}

func TestFetch_NextCallRetriesFailureByDefault(t *testing.T) {
	c := querycache.New(querycache.Config{})
	var calls atomic.Int32
	boom := errors.New("backend down")
	key := querycache.K(querycache.Sectors)

	if _, err := querycache.Fetch(context.Background(), c, key, counter(&calls, "", boom)); !errors.Is(err, boom) {
		t.Fatalf("expected failure, got %v", err)
	}
	v, err := querycache.Fetch(context.Background(), c, key, counter(&calls, "sectors", nil))
	if err != nil || v != "sectors" {
		t.Errorf("expected the next call to reach the backend, got %q, %v", v, err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 calls, got %d", n)
	}
	if s := c.Stats(); s.Entries != 1 {
		t.Errorf("expected only the value to be stored, got %+v", s)
	}
}

func TestFetch_TTLExpiry(t *testing.T) {
	c, clock := newTestCache(t)
	var calls atomic.Int32
	key := querycache.K(querycache.AboutPage)

	_, _ = querycache.Fetch(context.Background(), c, key, counter(&calls, "a", nil))
	clock.Advance(30 * time.Second)
	_, _ = querycache.Fetch(context.Background(), c, key, counter(&calls, "a", nil))
	clock.Advance(31 * time.Second)
	_, _ = querycache.Fetch(context.Background(), c, key, counter(&calls, "a", nil))

	if n := calls.Load(); n != 2 {
		t.Errorf("expected refetch after TTL only, got %d calls", n)
	}
}

func TestFetch_DisabledMakesNoCall(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32

	_, err := querycache.Fetch(context.Background(), c, querycache.K(querycache.CurrentUser),
		counter(&calls, "me", nil), querycache.Enabled(false))

	if !errors.Is(err, querycache.ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("disabled query made %d calls", n)
	}
}

func TestFetch_CancelledCallerStillCachesResult(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32
	release := make(chan struct{})
	key := querycache.K(querycache.Organizations, "page", 1)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() {
		_, err := querycache.Fetch(ctx, c, key, func(fctx context.Context) (string, error) {
			calls.Add(1)
			<-release
			return "list", fctx.Err()
		})
		errc <- err
	}()

	waitFor(t, func() bool { return calls.Load() == 1 })
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected caller to see cancellation, got %v", err)
	}

	close(release)
	waitFor(t, func() bool { return c.Stats().Entries == 1 })

	v, err := querycache.Fetch(context.Background(), c, key, counter(&calls, "other", nil))
	if err != nil || v != "list" {
		t.Errorf("expected detached result from cache, got %q, %v", v, err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected no extra call, got %d", n)
	}
}

func TestKey_Canonical(t *testing.T) {
	a := querycache.K(querycache.Organizations, 3, "x", map[string]int{"b": 2, "a": 1})
	b := querycache.K(querycache.Organizations, 3, "x", map[string]int{"a": 1, "b": 2})
	if a.String() != b.String() {
		t.Errorf("equal keys render differently: %q vs %q", a, b)
	}
	if querycache.K("r", 1).String() == querycache.K("r", "1").String() {
		t.Error("int and string params must not collide")
	}
	if querycache.K("r").String() == querycache.K("r", nil).String() {
		t.Error("nil param must be part of the key")
	}
}
