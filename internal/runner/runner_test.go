package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSim struct{ tick uint64 }

func (s *countingSim) Step()        { s.tick++ }
func (s *countingSim) Tick() uint64 { return s.tick }

func start(t *testing.T, r *Runner) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- r.Run(context.Background()) }()
	t.Cleanup(func() {
		r.Stop()
		<-r.Done()
	})
	return errc
}

func TestRunUntilPauses(t *testing.T) {
	sim := &countingSim{}
	r := New(sim, WithRunning(true), WithRunUntil(25))
	start(t, r)

	require.Eventually(t, func() bool {
		s := r.Status()
		return !s.Running && s.Tick == 25
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, uint64(25), r.Status().Tick)
}

func TestResumeAfterPause(t *testing.T) {
	sim := &countingSim{}
	r := New(sim)
	start(t, r)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, uint64(0), r.Status().Tick, "a paused runner does not step")

	r.RunUntil(10)
	r.SetRunning(true)
	require.Eventually(t, func() bool { return r.Status().Tick == 10 && !r.Status().Running }, 2*time.Second, 5*time.Millisecond)

	r.SetRunning(true)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, uint64(10), r.Status().Tick, "resuming at the target tick stays paused")
}

func TestStopReturnsNil(t *testing.T) {
	r := New(&countingSim{}, WithRunning(true))
	errc := make(chan error, 1)
	go func() { errc <- r.Run(context.Background()) }()

	r.Stop()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.NotPanics(t, r.Stop, "controls after exit do not block")
}

func TestCancelReturnsContextError(t *testing.T) {
	r := New(&countingSim{})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner ignored cancellation")
	}
}

func TestOnTickSeesEveryTickInOrder(t *testing.T) {
	var seen []uint64
	r := New(&countingSim{}, WithRunning(true), WithRunUntil(5), WithOnTick(func(tick uint64) {
		seen = append(seen, tick)
	}))
	errc := make(chan error, 1)
	go func() { errc <- r.Run(context.Background()) }()

	require.Eventually(t, func() bool { return !r.Status().Running && r.Status().Tick == 5 }, 2*time.Second, 5*time.Millisecond)
	r.Stop()
	require.NoError(t, <-errc)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, seen)
}

func TestLimitUPSUpdatesStatus(t *testing.T) {
	r := New(&countingSim{}, WithUPS(30))
	assert.Equal(t, 30, r.Status().UPS)
	start(t, r)

	r.LimitUPS(-5)
	require.Eventually(t, func() bool { return r.Status().UPS == 0 }, time.Second, 5*time.Millisecond)
	r.LimitUPS(1000)
	require.Eventually(t, func() bool { return r.Status().UPS == 1000 }, time.Second, 5*time.Millisecond)
}

func TestLimitedRunnerIsPaced(t *testing.T) {
	r := New(&countingSim{}, WithRunning(true), WithUPS(100))
	start(t, r)

	time.Sleep(100 * time.Millisecond)
	assert.Less(t, r.Status().Tick, uint64(60))
}
