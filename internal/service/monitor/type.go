package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/KNICEX/pinbar-monitor/internal/service/exchange"
	"github.com/KNICEX/pinbar-monitor/internal/service/notification"
	"github.com/KNICEX/pinbar-monitor/internal/service/strategy"
	"github.com/samber/lo"
)

// ErrConnectivity 扫描前的连通性检查失败, 本轮扫描放弃
var ErrConnectivity = errors.New("market data connectivity check failed")

// Pair 一个交易对 + 周期组合
type Pair struct {
	TradingPair exchange.TradingPair
	Interval    exchange.Interval
}

func (p Pair) String() string {
	return p.TradingPair.ToSlashString() + " " + p.Interval.ToString()
}

// Pairs 按配置顺序展开 交易对 x 周期
func Pairs(tradingPairs []exchange.TradingPair, intervals []exchange.Interval) []Pair {
	return lo.FlatMap(tradingPairs, func(tp exchange.TradingPair, _ int) []Pair {
		return lo.Map(intervals, func(iv exchange.Interval, _ int) Pair {
			return Pair{TradingPair: tp, Interval: iv}
		})
	})
}

// PinbarService 扫描服务接口
type PinbarService interface {
	Scan(ctx context.Context, pairs []Pair) ([]strategy.DetectionResult, error)
}

type Reporter interface {
	Aggregate(results []strategy.DetectionResult, scanTime time.Time) notification.Message
}

type Dispatcher interface {
	Dispatch(ctx context.Context, msg notification.Message) int
}

// Recorder 扫描指标
type Recorder interface {
	RecordScan(outcome string, d time.Duration)
	RecordPairError(kind string)
	RecordPinbar(symbol, interval string, priority bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordScan(string, time.Duration) {}
func (nopRecorder) RecordPairError(string) {}
func (nopRecorder) RecordPinbar(string, string, bool) {}
