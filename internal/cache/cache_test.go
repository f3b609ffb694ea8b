package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache() (*Cache, *fakeClock) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return New(Options{StaleTime: 30 * time.Second, Now: clk.Now}), clk
}

func TestKeyMatches(t *testing.T) {
	be.True(t, JobsKey().Matches(JobsKey()))
	be.True(t, Key{Kind: KindCandidates}.Matches(CandidatesKey("a")))
	be.True(t, CandidatesKey("a").Matches(CandidatesKey("a")))
	be.True(t, !CandidatesKey("a").Matches(CandidatesKey("b")))
	be.True(t, !JobKey("a").Matches(CandidatesKey("a")))
}

func TestConcurrentReadsShareOneFetch(t *testing.T) {
	c, _ := newTestCache()
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"job-1"}, nil
	}

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Get(context.Background(), c, JobsKey(), fetch)
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	be.Equal(t, calls.Load(), int32(1))
	for _, r := range results {
		be.Equal(t, r, []string{"job-1"})
	}
}

func TestGetServesStaleAndRefreshesInBackground(t *testing.T) {
	c, clk := newTestCache()
	var version atomic.Int32
	fetch := func(ctx context.Context) (int32, error) {
		return version.Add(1), nil
	}

	updated := make(chan Key, 4)
	unsub := c.Subscribe(func(ev Event) {
		if ev.Type == EventUpdated {
			updated <- ev.Key
		}
	})
	defer unsub()

	v, err := Get(context.Background(), c, StatsKey(), fetch)
	be.Err(t, err, nil)
	be.Equal(t, v, int32(1))
	<-updated

	// fresh: no refetch
	v, _ = Get(context.Background(), c, StatsKey(), fetch)
	be.Equal(t, v, int32(1))
	be.Equal(t, version.Load(), int32(1))

	clk.Advance(31 * time.Second)
	v, _ = Get(context.Background(), c, StatsKey(), fetch)
	be.Equal(t, v, int32(1))

	select {
	case k := <-updated:
		be.Equal(t, k, StatsKey())
	case <-time.After(2 * time.Second):
		t.Fatal("background refresh did not complete")
	}
	v, _ = Get(context.Background(), c, StatsKey(), fetch)
	be.Equal(t, v, int32(2))
}

func TestFetchBlocksWhenInvalidated(t *testing.T) {
	c, _ := newTestCache()
	var version atomic.Int32
	fetch := func(ctx context.Context) (int32, error) { return version.Add(1), nil }

	v, _ := Fetch(context.Background(), c, CandidatesKey("j1"), fetch)
	be.Equal(t, v, int32(1))

	c.Invalidate(Key{Kind: KindCandidates})
	_, ok, stale := c.Peek(CandidatesKey("j1"))
	be.True(t, ok)
	be.True(t, stale)

	v, _ = Fetch(context.Background(), c, CandidatesKey("j1"), fetch)
	be.Equal(t, v, int32(2))
	_, _, stale = c.Peek(CandidatesKey("j1"))
	be.True(t, !stale)
}

func TestInvalidateNotifiesWithoutSubstitutingData(t *testing.T) {
	c, _ := newTestCache()
	_, _ = Fetch(context.Background(), c, JobsKey(), func(context.Context) (string, error) { return "v1", nil })

	var got []Event
	c.Subscribe(func(ev Event) { got = append(got, ev) })
	c.Invalidate(AfterUpload("j1")...)

	be.Equal(t, len(got), 2)
	be.Equal(t, got[0], Event{Type: EventInvalidated, Key: CandidatesKey("j1")})
	be.Equal(t, got[1], Event{Type: EventInvalidated, Key: JobsKey()})

	v, ok, stale := c.Peek(JobsKey())
	be.True(t, ok)
	be.True(t, stale)
	be.Equal(t, v.(string), "v1")
}

func TestInvalidationDuringFetchKeepsEntryStale(t *testing.T) {
	c, _ := newTestCache()
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		return "old", nil
	}

	done := make(chan struct{})
	go func() {
		_, _ = Fetch(context.Background(), c, CandidatesKey("j1"), fetch)
		close(done)
	}()
	<-started
	c.Invalidate(Key{Kind: KindCandidates})
	close(release)
	<-done

	_, ok, stale := c.Peek(CandidatesKey("j1"))
	be.True(t, ok)
	be.True(t, stale)
}

func TestFetchErrorIsNotCached(t *testing.T) {
	c, _ := newTestCache()
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), c, JobKey("x"), func(context.Context) (string, error) { return "", boom })
	be.Err(t, err, boom)
	_, ok, _ := c.Peek(JobKey("x"))
	be.True(t, !ok)
}

func TestMutateRunsOnceAndInvalidatesOnSuccess(t *testing.T) {
	c, _ := newTestCache()
	_, _ = Fetch(context.Background(), c, JobsKey(), func(context.Context) (string, error) { return "v1", nil })

	var writes atomic.Int32
	failing := errors.New("500")
	err := c.Mutate(context.Background(), func(context.Context) error {
		writes.Add(1)
		return failing
	}, JobsKey())
	be.Err(t, err, failing)
	be.Equal(t, writes.Load(), int32(1))
	_, _, stale := c.Peek(JobsKey())
	be.True(t, !stale)

	err = c.Mutate(context.Background(), func(context.Context) error {
		writes.Add(1)
		return nil
	}, JobsKey())
	be.Err(t, err, nil)
	be.Equal(t, writes.Load(), int32(2))
	_, _, stale = c.Peek(JobsKey())
	be.True(t, stale)
}

func TestFetchAfterInvalidationDoesNotJoinOlderFetch(t *testing.T) {
	c, _ := newTestCache()
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return "old", nil
		}
		return "new", nil
	}

	done := make(chan string)
	go func() {
		v, _ := Fetch(context.Background(), c, CandidatesKey("j1"), fetch)
		done <- v
	}()
	<-started
	c.Invalidate(CandidatesKey("j1"))

	got, err := Fetch(context.Background(), c, CandidatesKey("j1"), fetch)
	be.Err(t, err, nil)
	be.Equal(t, got, "new")
	be.Equal(t, calls.Load(), int32(2))

	close(release)
	be.Equal(t, <-done, "old")

	v, ok, stale := c.Peek(CandidatesKey("j1"))
	be.True(t, ok)
	be.Equal(t, v, any("new"))
	be.True(t, !stale)
}

func TestMutationInvalidationKeys(t *testing.T) {
	const id = "507f1f77bcf86cd799439011"
	covers := func(keys []Key, want Key) bool {
		for _, k := range keys {
			if k.Matches(want) {
				return true
			}
		}
		return false
	}

	cases := []struct {
		name  string
		keys  []Key
		want  []Key
		other []Key
	}{
		{"upload", AfterUpload(id), []Key{CandidatesKey(id), JobsKey()}, []Key{JobKey("other")}},
		{"candidate delete", AfterCandidateDelete(id), []Key{CandidatesKey(id), JobsKey(), JobKey(id), StatsKey()}, []Key{CandidatesKey("other")}},
		{"job sync", AfterJobSync(id), []Key{JobKey(id), CandidatesKey(id), JobsKey(), StatsKey()}, []Key{CandidatesKey("other")}},
		{"job change", AfterJobChange(id), []Key{JobsKey(), StatsKey(), JobKey(id), CandidatesKey(id)}, []Key{VoiceGlobalKey()}},
		{"job create", AfterJobChange(""), []Key{JobsKey(), StatsKey()}, []Key{JobKey(id), CandidatesKey(id)}},
		{"voice screen", AfterVoiceScreen(id), []Key{CandidatesKey(id)}, []Key{JobsKey()}},
		{"sync all", AfterSyncAll(), []Key{JobKey(id), JobKey("other"), CandidatesKey(id), CandidatesKey("other"), JobsKey(), StatsKey()}, []Key{VoiceJobKey(id)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range tc.want {
				if !covers(tc.keys, k) {
					t.Fatalf("%s keys %v do not cover %s", tc.name, tc.keys, k)
				}
			}
			for _, k := range tc.other {
				if covers(tc.keys, k) {
					t.Fatalf("%s keys %v unexpectedly cover %s", tc.name, tc.keys, k)
				}
			}
		})
	}
}
