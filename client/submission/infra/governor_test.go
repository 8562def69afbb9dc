package infra

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"crpt-client/client/submission/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
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

func mustGovernor(t *testing.T, d time.Duration, capacity int, opts ...GovernorOption) *Governor {
	t.Helper()
	w, err := domain.NewWindow(d, capacity)
	require.NoError(t, err)
	g, err := NewGovernor(w, opts...)
	require.NoError(t, err)
	return g
}

func TestNewGovernor_RejectsInvalidWindow(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := NewGovernor(domain.Window{Duration: time.Second, Capacity: capacity})
		require.ErrorIs(t, err, domain.ErrInvalidConfiguration, "capacity=%d", capacity)
	}

	_, err := NewGovernor(domain.Window{Duration: 0, Capacity: 3})
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewGovernor(domain.Window{Duration: time.Second, Capacity: 1})
	require.NoError(t, err)
}

func TestGovernor_AdmitsCapacityThenDenies(t *testing.T) {
	clock := newFakeClock()
	g := mustGovernor(t, time.Second, 3, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		require.True(t, g.TryAcquire(), "call %d should be admitted", i+1)
	}
	require.False(t, g.TryAcquire(), "call 4 should be denied")
	require.Equal(t, 0, g.Remaining())
}

func TestGovernor_ResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	g := mustGovernor(t, time.Second, 2, WithClock(clock.Now))

	require.True(t, g.TryAcquire())
	require.True(t, g.TryAcquire())
	require.False(t, g.TryAcquire())

	clock.Advance(999 * time.Millisecond)
	require.False(t, g.TryAcquire(), "window still open")

	clock.Advance(time.Millisecond)
	require.True(t, g.TryAcquire())
	require.True(t, g.TryAcquire())
	require.False(t, g.TryAcquire())
}

func TestGovernor_DeniedCallsStillConsume(t *testing.T) {
	clock := newFakeClock()
	g := mustGovernor(t, time.Second, 1, WithClock(clock.Now))

	require.True(t, g.TryAcquire())
	for i := 0; i < 5; i++ {
		require.False(t, g.TryAcquire())
	}
	// o contador ficou negativo; só a próxima janela devolve capacidade
	require.Equal(t, 0, g.Remaining())

	clock.Advance(time.Second)
	require.Equal(t, 1, g.Remaining())
	require.True(t, g.TryAcquire())
}

func TestGovernor_ResetIn(t *testing.T) {
	clock := newFakeClock()
	g := mustGovernor(t, time.Second, 1, WithClock(clock.Now))

	assert.Equal(t, time.Duration(0), g.ResetIn(), "no window open yet")

	g.TryAcquire()
	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, 700*time.Millisecond, g.ResetIn())

	clock.Advance(time.Second)
	assert.Equal(t, time.Duration(0), g.ResetIn())
}

func TestGovernor_ConcurrentCapacityCallsAllAdmitted(t *testing.T) {
	const n = 50
	clock := newFakeClock()
	g := mustGovernor(t, time.Second, n, WithClock(clock.Now))

	var admitted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire() {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int64(n), admitted.Load())
	require.False(t, g.TryAcquire(), "call n+1 should be denied")
}

func TestGovernor_ContentionNeverOverAdmits(t *testing.T) {
	const n = 20
	clock := newFakeClock()
	g := mustGovernor(t, time.Second, n, WithClock(clock.Now))

	var admitted, denied atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 10*n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire() {
				admitted.Add(1)
			} else {
				denied.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int64(n), admitted.Load())
	require.Equal(t, int64(9*n), denied.Load())
}

func TestGovernor_ConcurrentWindowOpenIsSingle(t *testing.T) {
	const n = 10
	clock := newFakeClock()
	g := mustGovernor(t, time.Second, n, WithClock(clock.Now))

	// várias rodadas atravessando a virada de janela ao mesmo tempo
	for round := 0; round < 5; round++ {
		clock.Advance(time.Second)

		var admitted atomic.Int64
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < 5*n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if g.TryAcquire() {
					admitted.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, int64(n), admitted.Load(), "round %d", round)
	}
}

func TestGovernor_RealClockReset(t *testing.T) {
	g := mustGovernor(t, 50*time.Millisecond, 2)

	require.True(t, g.TryAcquire())
	require.True(t, g.TryAcquire())
	require.False(t, g.TryAcquire())

	time.Sleep(80 * time.Millisecond)

	require.True(t, g.TryAcquire())
	require.True(t, g.TryAcquire())
}

func TestGovernor_SequentialAdmissionsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 200).Draw(t, "capacity")
		calls := rapid.IntRange(0, 400).Draw(t, "calls")

		clock := newFakeClock()
		g, err := NewGovernor(domain.Window{Duration: time.Minute, Capacity: capacity}, WithClock(clock.Now))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		admitted := 0
		for i := 0; i < calls; i++ {
			if g.TryAcquire() {
				admitted++
			}
		}

		want := min(calls, capacity)
		if admitted != want {
			t.Fatalf("capacity=%d calls=%d: admitted %d, want %d", capacity, calls, admitted, want)
		}
	})
}
