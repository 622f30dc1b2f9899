package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KNICEX/pinbar-monitor/internal/schedule"
)

var _ schedule.Task = (*PinbarMonitorTask)(nil)

// PinbarMonitorTask 一轮完整的 扫描 -> 汇总 -> 通知
type PinbarMonitorTask struct {
	pairs      []Pair
	pinbarSvc  PinbarService
	reporter   Reporter
	dispatcher Dispatcher
	recorder   Recorder
	now        func() time.Time
}

type TaskOption func(t *PinbarMonitorTask)

func WithTaskRecorder(r Recorder) TaskOption {
	return func(t *PinbarMonitorTask) {
		t.recorder = r
	}
}

func WithTaskClock(now func() time.Time) TaskOption {
	return func(t *PinbarMonitorTask) {
		t.now = now
	}
}

func NewPinbarMonitorTask(pairs []Pair, pinbarSvc PinbarService, reporter Reporter, dispatcher Dispatcher, opts ...TaskOption) *PinbarMonitorTask {
	task := &PinbarMonitorTask{
		pairs:      pairs,
		pinbarSvc:  pinbarSvc,
		reporter:   reporter,
		dispatcher: dispatcher,
		recorder:   nopRecorder{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(task)
	}
	return task
}

func (t *PinbarMonitorTask) Run(ctx context.Context) error {
	start := t.now()
	slog.Info("running pinbar scan", "pairs", len(t.pairs), "at", start)

	results, err := t.pinbarSvc.Scan(ctx, t.pairs)
	if err != nil {
		if errors.Is(err, ErrConnectivity) {
			t.recorder.RecordScan("aborted", t.now().Sub(start))
			slog.Error("cannot connect to market data, skipping this run", "error", err)
			return nil
		}
		t.recorder.RecordScan("failed", t.now().Sub(start))
		return err
	}

	if len(results) == 0 {
		t.recorder.RecordScan("completed", t.now().Sub(start))
		slog.Info("no pinbars detected in this scan")
		return nil
	}

	msg := t.reporter.Aggregate(results, start)
	delivered := t.dispatcher.Dispatch(ctx, msg)
	t.recorder.RecordScan("completed", t.now().Sub(start))
	slog.Info("consolidated report sent", "pinbars", len(results), "channels_delivered", delivered)
	return nil
}

func (t *PinbarMonitorTask) Name() string {
	return "pinbar monitor task"
}
