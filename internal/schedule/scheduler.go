package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var ErrAlreadyStarted = errors.New("scheduler already started")

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const DefaultRetryBackoff = time.Minute

// Scheduler 启动后立即执行一次, 之后按 Spec 循环执行, 直到 ctx 取消或调用 Stop
type Scheduler struct {
	task Task
	spec Spec

	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
	retryBackoff time.Duration

	state  atomic.Int32
	mu     sync.Mutex
	cancel context.CancelFunc
}

type Option func(s *Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithSleeper 替换等待实现, sleeper 在 ctx 取消时应立即返回 ctx.Err()
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) {
		s.sleep = sleep
	}
}

func WithRetryBackoff(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.retryBackoff = d
		}
	}
}

func NewScheduler(task Task, spec Spec, opts ...Option) *Scheduler {
	s := &Scheduler{
		task:         task,
		spec:         spec,
		now:          time.Now,
		sleep:        Sleep,
		retryBackoff: DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Start 阻塞运行, 返回 nil 表示被正常停止
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	defer s.state.Store(int32(StateStopped))

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	slog.Info("scheduler started", "task", s.task.Name(), "schedule", s.spec.String())
	s.runOnce(ctx)

	for ctx.Err() == nil {
		now := s.now()
		next, err := NextTrigger(s.spec, now)
		if err != nil {
			slog.Error("failed to compute next trigger", "schedule", s.spec.String(), "error", err, "retry_in", s.retryBackoff)
			if s.sleep(ctx, s.retryBackoff) != nil {
				break
			}
			continue
		}

		wait := next.Sub(now)
		slog.Info("next scan scheduled", "task", s.task.Name(), "at", next, "wait", wait)
		if wait > 0 {
			if s.sleep(ctx, wait) != nil {
				break
			}
		}
		s.runOnce(ctx)
	}

	slog.Info("scheduler stopped", "task", s.task.Name())
	return nil
}

// Stop 在两次执行之间生效, 不会打断正在执行的任务
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// 正在进行的一轮扫描不受停止信号影响
	if err := s.task.Run(context.WithoutCancel(ctx)); err != nil {
		slog.Error("scheduled task failed", "task", s.task.Name(), "error", err)
	}
}

// Sleep 可被 ctx 取消的等待
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
