package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KNICEX/pinbar-monitor/internal/service/exchange"
	"github.com/KNICEX/pinbar-monitor/internal/service/strategy"
)

const (
	// DefaultKlineLimit 1 根当前 + 1 根目标 + 40 根上下文, 多取一些余量
	DefaultKlineLimit   = 50
	DefaultFetchTimeout = 15 * time.Second
)

var _ PinbarService = (*PinbarMonitor)(nil)

type PinbarMonitor struct {
	detector  strategy.Detector
	marketSvc exchange.MarketService
	recorder  Recorder

	klineLimit   int
	fetchTimeout time.Duration
}

type Option func(m *PinbarMonitor)

func WithKlineLimit(limit int) Option {
	return func(m *PinbarMonitor) {
		if limit >= strategy.MinWindowSize {
			m.klineLimit = limit
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(m *PinbarMonitor) {
		m.fetchTimeout = d
	}
}

func WithRecorder(r Recorder) Option {
	return func(m *PinbarMonitor) {
		m.recorder = r
	}
}

func NewPinbarMonitor(detector strategy.Detector, marketSvc exchange.MarketService, opts ...Option) *PinbarMonitor {
	m := &PinbarMonitor{
		detector:     detector,
		marketSvc:    marketSvc,
		recorder:     nopRecorder{},
		klineLimit:   DefaultKlineLimit,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Scan 先检查连通性, 再逐个扫描, 单个交易对失败只跳过该交易对. 只返回 pinbar 结果
func (m *PinbarMonitor) Scan(ctx context.Context, pairs []Pair) ([]strategy.DetectionResult, error) {
	pingCtx, cancel := m.withTimeout(ctx)
	err := m.marketSvc.Ping(pingCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	var results []strategy.DetectionResult
	for _, pair := range pairs {
		res, err := m.scanPair(ctx, pair)
		if err != nil {
			kind := "fetch"
			if errors.Is(err, exchange.ErrPriceUnavailable) {
				kind = "price"
			}
			m.recorder.RecordPairError(kind)
			slog.Error("failed to scan pair", "symbol", pair.TradingPair.ToSlashString(), "interval", pair.Interval, "error", err)
			continue
		}
		if !res.IsPinbar {
			continue
		}
		m.recorder.RecordPinbar(pair.TradingPair.ToSlashString(), pair.Interval.ToString(), res.IsPriority)
		results = append(results, res)
	}
	return results, nil
}

func (m *PinbarMonitor) scanPair(ctx context.Context, pair Pair) (res strategy.DetectionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan %s panicked: %v", pair, r)
		}
	}()

	fetchCtx, cancel := m.withTimeout(ctx)
	defer cancel()

	kLines, err := m.marketSvc.GetKlines(fetchCtx, exchange.GetKlinesReq{
		TradingPair: pair.TradingPair,
		Interval:    pair.Interval,
		Limit:       m.klineLimit,
	})
	if err != nil {
		return strategy.DetectionResult{}, err
	}

	res = m.detector.Detect(pair.TradingPair, pair.Interval, kLines)
	if !res.IsPinbar {
		return res, nil
	}

	// 获取最新价格
	priceCtx, cancelPrice := m.withTimeout(ctx)
	defer cancelPrice()
	res.LastPrice, err = m.marketSvc.Ticker(priceCtx, pair.TradingPair)
	if err != nil {
		return strategy.DetectionResult{}, err
	}
	return res, nil
}

func (m *PinbarMonitor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.fetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.fetchTimeout)
}
