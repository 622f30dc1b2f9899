package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrInvalidSpec = errors.New("invalid schedule spec")

// Spec 优先使用 cron 表达式, 未配置时退化为固定间隔
type Spec struct {
	Cron     string
	Interval time.Duration
}

func (s Spec) String() string {
	if s.Cron != "" {
		return "cron(" + s.Cron + ")"
	}
	return "every " + s.Interval.String()
}

// Validate 启动时校验, 避免运行中才发现表达式错误
func (s Spec) Validate() error {
	if s.Cron != "" {
		if _, err := cron.ParseStandard(s.Cron); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
		return nil
	}
	if s.Interval <= 0 {
		return fmt.Errorf("%w: neither cron expression nor positive interval set", ErrInvalidSpec)
	}
	return nil
}

// NextTrigger 计算 now 之后的下一次触发时间
func NextTrigger(spec Spec, now time.Time) (time.Time, error) {
	if spec.Cron == "" {
		if spec.Interval <= 0 {
			return time.Time{}, fmt.Errorf("%w: neither cron expression nor positive interval set", ErrInvalidSpec)
		}
		return now.Add(spec.Interval), nil
	}

	sched, err := cron.ParseStandard(spec.Cron)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	next := sched.Next(now)
	// 表达式永远不会命中时返回零值
	if next.IsZero() || !next.After(now) {
		return time.Time{}, fmt.Errorf("%w: %q has no trigger after %s", ErrInvalidSpec, spec.Cron, now.Format(time.RFC3339))
	}
	return next, nil
}
