package monitor

import (
	"context"
	"time"

	"github.com/KNICEX/pinbar-monitor/internal/service/exchange"
	"github.com/KNICEX/pinbar-monitor/internal/service/notification"
	"github.com/KNICEX/pinbar-monitor/internal/service/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockMarketService struct {
	mock.Mock
}

func (m *MockMarketService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMarketService) Ticker(ctx context.Context, tradingPair exchange.TradingPair) (decimal.Decimal, error) {
	args := m.Called(ctx, tradingPair)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockMarketService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]exchange.Kline), args.Error(1)
}

type MockPinbarService struct {
	mock.Mock
}

func (m *MockPinbarService) Scan(ctx context.Context, pairs []Pair) ([]strategy.DetectionResult, error) {
	args := m.Called(ctx, pairs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]strategy.DetectionResult), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, msg notification.Message) int {
	return m.Called(ctx, msg).Int(0)
}

type panicDetector struct{}

func (panicDetector) Detect(exchange.TradingPair, exchange.Interval, []exchange.Kline) strategy.DetectionResult {
	panic("index out of range")
}

var (
	btc = exchange.TradingPair{Base: "BTC", Quote: "USDT"}
	eth = exchange.TradingPair{Base: "ETH", Quote: "USDT"}
	sol = exchange.TradingPair{Base: "SOL", Quote: "USDT"}
)

func kline(openTime time.Time, open, high, low, closePrice float64) exchange.Kline {
	return exchange.Kline{
		OpenTime: openTime,
		Open:     decimal.NewFromFloat(open),
		High:     decimal.NewFromFloat(high),
		Low:      decimal.NewFromFloat(low),
		Close:    decimal.NewFromFloat(closePrice),
	}
}

// window 生成 50 根K线: [当前, 目标, 上下文...]
func window(target exchange.Kline, contextHigh, contextLow float64) []exchange.Kline {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	kls := make([]exchange.Kline, 0, DefaultKlineLimit)
	kls = append(kls, kline(base.Add(4*time.Hour), 100, 101, 99, 100))
	target.OpenTime = base
	kls = append(kls, target)
	for i := 1; len(kls) < DefaultKlineLimit; i++ {
		mid := (contextHigh + contextLow) / 2
		kls = append(kls, kline(base.Add(-time.Duration(i)*4*time.Hour), mid, contextHigh, contextLow, mid))
	}
	return kls
}

func priorityShootingStar() []exchange.Kline {
	return window(kline(time.Time{}, 91, 110, 90, 92), 115, 95)
}

func plainShootingStar() []exchange.Kline {
	return window(kline(time.Time{}, 91, 110, 90, 92), 150, 130)
}

func normalCandles() []exchange.Kline {
	return window(kline(time.Time{}, 90, 100, 80, 95), 100, 80)
}

type fakeRecorder struct {
	scans      map[string]int
	pairErrors map[string]int
	pinbars    map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		scans:      map[string]int{},
		pairErrors: map[string]int{},
		pinbars:    map[string]int{},
	}
}

func (r *fakeRecorder) RecordScan(outcome string, _ time.Duration) {
	r.scans[outcome]++
}

func (r *fakeRecorder) RecordPairError(kind string) {
	r.pairErrors[kind]++
}

func (r *fakeRecorder) RecordPinbar(symbol, interval string, priority bool) {
	key := symbol + " " + interval + " false"
	if priority {
		key = symbol + " " + interval + " true"
	}
	r.pinbars[key]++
}
