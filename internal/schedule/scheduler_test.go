package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcTask struct {
	mu   sync.Mutex
	runs int
	fn   func(ctx context.Context, run int) error
}

func (t *funcTask) Run(ctx context.Context) error {
	t.mu.Lock()
	t.runs++
	run := t.runs
	t.mu.Unlock()
	if t.fn == nil {
		return nil
	}
	return t.fn(ctx, run)
}

func (t *funcTask) Name() string {
	return "test task"
}

func (t *funcTask) Runs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}

// fakeClock 每次 sleep 直接推进时间
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
	onSleep func(n int)
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if c.onSleep != nil {
		c.onSleep(len(c.sleeps))
	}
	return ctx.Err()
}

func TestScheduler_RunsImmediatelyThenOnCron(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 15, 0, 0, time.UTC)}
	var runTimes []time.Time
	task := &funcTask{fn: func(_ context.Context, run int) error {
		runTimes = append(runTimes, clock.Now())
		if run == 3 {
			cancel()
		}
		return nil
	}}

	s := NewScheduler(task, Spec{Cron: "0 * * * *"}, WithClock(clock.Now), WithSleeper(clock.Sleep))
	require.NoError(t, s.Start(ctx))

	assert.Equal(t, 3, task.Runs())
	assert.Equal(t, []time.Duration{45 * time.Minute, time.Hour}, clock.sleeps)
	assert.Equal(t, []time.Time{
		time.Date(2025, 6, 1, 10, 15, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}, runTimes)
	assert.Equal(t, StateStopped, s.State())
}

func TestScheduler_BacksOffWhenNextTriggerFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 15, 0, 0, time.UTC)}
	clock.onSleep = func(n int) {
		if n == 3 {
			cancel()
		}
	}
	task := &funcTask{}

	s := NewScheduler(task, Spec{Cron: "0 0 30 2 *"},
		WithClock(clock.Now), WithSleeper(clock.Sleep), WithRetryBackoff(5*time.Second))
	require.NoError(t, s.Start(ctx))

	assert.Equal(t, 1, task.Runs(), "only the immediate run happens")
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, clock.sleeps)
}

func TestScheduler_TaskErrorIsNotFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	task := &funcTask{fn: func(_ context.Context, run int) error {
		if run == 4 {
			cancel()
		}
		return errors.New("scan failed")
	}}

	s := NewScheduler(task, Spec{Interval: 10 * time.Minute}, WithClock(clock.Now), WithSleeper(clock.Sleep))
	require.NoError(t, s.Start(ctx))
	assert.Equal(t, 4, task.Runs())
	assert.Equal(t, []time.Duration{10 * time.Minute, 10 * time.Minute, 10 * time.Minute}, clock.sleeps)
}

func TestScheduler_StopDoesNotInterruptRunningTask(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	var (
		s           *Scheduler
		ctxErrInRun error
	)
	task := &funcTask{fn: func(ctx context.Context, run int) error {
		s.Stop()
		ctxErrInRun = ctx.Err()
		return nil
	}}
	s = NewScheduler(task, Spec{Interval: time.Minute}, WithClock(clock.Now), WithSleeper(clock.Sleep))

	require.NoError(t, s.Start(context.Background()))
	assert.NoError(t, ctxErrInRun)
	assert.Equal(t, 1, task.Runs())
	assert.Empty(t, clock.sleeps)
}

func TestScheduler_StartTwice(t *testing.T) {
	task := &funcTask{}
	s := NewScheduler(task, Spec{Interval: time.Hour}, WithSleeper(Sleep))
	assert.Equal(t, StateIdle, s.State())

	done := make(chan error, 1)
	go func() {
		done <- s.Start(context.Background())
	}()

	require.Eventually(t, func() bool {
		return s.State() == StateRunning && task.Runs() == 1
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	s.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, StateStopped, s.State())
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "unknown", State(9).String())
}
