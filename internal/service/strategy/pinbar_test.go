package strategy

import (
	"testing"
	"time"

	"github.com/KNICEX/pinbar-monitor/internal/service/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var btcusdt = exchange.TradingPair{Base: "BTC", Quote: "USDT"}

func mockKline(open, high, low, closePrice float64) exchange.Kline {
	return exchange.Kline{
		OpenTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Open:     decimal.NewFromFloat(open),
		High:     decimal.NewFromFloat(high),
		Low:      decimal.NewFromFloat(low),
		Close:    decimal.NewFromFloat(closePrice),
		Volume:   decimal.NewFromInt(1000),
	}
}

func repeatKline(k exchange.Kline, n int) []exchange.Kline {
	res := make([]exchange.Kline, n)
	for i := range res {
		res[i] = k
	}
	return res
}

// buildWindow 组装 [当前K线, 目标K线, 上下文...]
func buildWindow(target exchange.Kline, prev []exchange.Kline) []exchange.Kline {
	window := []exchange.Kline{mockKline(100, 101, 99, 100), target}
	return append(window, prev...)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name       string
		kline      exchange.Kline
		wantPinbar bool
		wantDir    Direction
	}{
		{name: "hammer", kline: mockKline(98, 100, 80, 99), wantPinbar: true, wantDir: DirectionDown},
		{name: "shooting star", kline: mockKline(81, 100, 80, 82), wantPinbar: true, wantDir: DirectionUp},
		{name: "normal body", kline: mockKline(90, 100, 80, 95), wantPinbar: false, wantDir: DirectionDown},
		{name: "flat candle", kline: mockKline(100, 100, 100, 100), wantPinbar: false, wantDir: DirectionDown},
		// 下影线 20, 总长 30, 恰好 2/3
		{name: "exactly two thirds", kline: mockKline(120, 130, 100, 120), wantPinbar: false, wantDir: DirectionDown},
		{name: "just above two thirds", kline: mockKline(120.01, 130, 100, 120.02), wantPinbar: true, wantDir: DirectionDown},
		{name: "equal shadows", kline: mockKline(100, 110, 90, 100), wantPinbar: false, wantDir: DirectionDown},
		{name: "doji equal shadows", kline: mockKline(100, 101, 99, 100), wantPinbar: false, wantDir: DirectionDown},
		{name: "inverted high low", kline: mockKline(90, 80, 100, 90), wantPinbar: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cls := Classify(tc.kline)
			assert.Equal(t, tc.wantPinbar, cls.IsPinbar)
			if tc.wantDir != DirectionNone {
				assert.Equal(t, tc.wantDir, cls.Direction)
			}
		})
	}
}

func TestClassify_FlatCandlesNeverPinbar(t *testing.T) {
	for _, p := range []float64{0, 0.0001, 1, 65000.5} {
		assert.False(t, Classify(mockKline(p, p, p, p)).IsPinbar)
	}
}

func TestValidateContext(t *testing.T) {
	shootingStar := mockKline(91, 110, 90, 92)
	hammer := mockKline(109, 110, 90, 108)

	testCases := []struct {
		name   string
		target exchange.Kline
		prev   []exchange.Kline
		want   bool
	}{
		{
			name:   "up near recent high",
			target: shootingStar,
			prev:   repeatKline(mockKline(100, 115, 95, 105), ContextSize),
			want:   true,
		},
		{
			name:   "up far below recent high",
			target: shootingStar,
			prev:   repeatKline(mockKline(140, 150, 130, 145), ContextSize),
			want:   false,
		},
		{
			// |110-130| = 20, 不小于长度 20
			name:   "up distance equals range",
			target: shootingStar,
			prev:   repeatKline(mockKline(120, 130, 110, 125), ContextSize),
			want:   false,
		},
		{
			name:   "up gapped above all highs",
			target: mockKline(201, 240, 200, 202),
			prev:   repeatKline(mockKline(100, 150, 95, 105), ContextSize),
			want:   true,
		},
		{
			name:   "down near recent low",
			target: hammer,
			prev:   repeatKline(mockKline(100, 120, 85, 105), ContextSize),
			want:   true,
		},
		{
			name:   "down far above recent low",
			target: hammer,
			prev:   repeatKline(mockKline(60, 70, 50, 65), ContextSize),
			want:   false,
		},
		{
			name:   "down gapped below all lows",
			target: mockKline(49, 50, 30, 48),
			prev:   repeatKline(mockKline(100, 120, 90, 105), ContextSize),
			want:   true,
		},
		{
			name:   "empty context",
			target: shootingStar,
			want:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidateContext(tc.target, tc.prev))
		})
	}
}

func TestValidateContext_UsesExtremeOfWindow(t *testing.T) {
	prev := repeatKline(mockKline(100, 105, 95, 100), ContextSize)
	// 只有一根K线的高点 150, 决定了最大值
	prev[25] = mockKline(140, 150, 130, 145)
	assert.False(t, ValidateContext(mockKline(91, 110, 90, 92), prev))
}

func TestPinbarDetector_Detect(t *testing.T) {
	detector := NewPinbarDetector()

	t.Run("priority shooting star", func(t *testing.T) {
		window := buildWindow(mockKline(91, 110, 90, 92), repeatKline(mockKline(100, 115, 95, 105), ContextSize))
		res := detector.Detect(btcusdt, exchange.Interval4h, window)

		assert.True(t, res.IsPinbar)
		assert.True(t, res.IsPriority)
		assert.False(t, res.Insufficient)
		assert.Equal(t, DirectionUp, res.Direction)
		assert.Equal(t, window[1].OpenTime, res.Timestamp)
		assert.Contains(t, res.Details, "bearish reversal")
		assert.Contains(t, res.Details, "open=91, high=110, low=90, close=92")
	})

	t.Run("non priority shooting star", func(t *testing.T) {
		window := buildWindow(mockKline(91, 110, 90, 92), repeatKline(mockKline(140, 150, 130, 145), ContextSize))
		res := detector.Detect(btcusdt, exchange.Interval4h, window)

		assert.True(t, res.IsPinbar)
		assert.False(t, res.IsPriority)
		assert.NotContains(t, res.Details, "Direction")
		assert.Contains(t, res.Details, "open=91, high=110, low=90, close=92")
	})

	t.Run("not a pinbar", func(t *testing.T) {
		window := buildWindow(mockKline(90, 100, 80, 95), repeatKline(mockKline(90, 100, 80, 95), ContextSize))
		res := detector.Detect(btcusdt, exchange.Interval1d, window)

		assert.False(t, res.IsPinbar)
		assert.False(t, res.IsPriority)
		assert.Equal(t, DirectionNone, res.Direction)
		assert.Empty(t, res.Details)
	})

	t.Run("current candle is ignored", func(t *testing.T) {
		window := buildWindow(mockKline(90, 100, 80, 95), repeatKline(mockKline(100, 115, 95, 105), ContextSize))
		window[0] = mockKline(98, 100, 80, 99)
		res := detector.Detect(btcusdt, exchange.Interval1h, window)
		assert.False(t, res.IsPinbar)
	})

	t.Run("minimum window", func(t *testing.T) {
		window := buildWindow(mockKline(98, 100, 80, 99), repeatKline(mockKline(90, 95, 81, 92), MinWindowSize-2))
		require.Len(t, window, MinWindowSize)
		res := detector.Detect(btcusdt, exchange.Interval1h, window)
		assert.False(t, res.Insufficient)
		assert.True(t, res.IsPinbar)
		assert.True(t, res.IsPriority)
	})

	t.Run("context limited to forty candles", func(t *testing.T) {
		prev := repeatKline(mockKline(100, 115, 95, 105), ContextSize+5)
		// 第41根之后的K线不参与判断
		for i := ContextSize; i < len(prev); i++ {
			prev[i] = mockKline(300, 500, 290, 310)
		}
		res := detector.Detect(btcusdt, exchange.Interval1h, buildWindow(mockKline(91, 110, 90, 92), prev))
		assert.True(t, res.IsPriority)
	})
}

func TestPinbarDetector_InsufficientData(t *testing.T) {
	detector := NewPinbarDetector()
	for _, n := range []int{0, 1, 2, MinWindowSize - 1} {
		window := repeatKline(mockKline(98, 100, 80, 99), n)
		assert.NotPanics(t, func() {
			res := detector.Detect(btcusdt, exchange.Interval4h, window)
			assert.True(t, res.Insufficient)
			assert.False(t, res.IsPinbar)
			assert.False(t, res.IsPriority)
		})
	}
}

func TestDirection_Describe(t *testing.T) {
	assert.Equal(t, "bearish reversal (long upper shadow)", DirectionUp.Describe())
	assert.Equal(t, "bullish reversal (long lower shadow)", DirectionDown.Describe())
	assert.Equal(t, "none", DirectionNone.Describe())
}
