package strategy

import (
	"time"

	"github.com/KNICEX/pinbar-monitor/internal/service/exchange"
	"github.com/shopspring/decimal"
)

// Direction 主影线方向
type Direction string

const (
	// DirectionUp 长上影线, 看跌反转 (shooting star)
	DirectionUp Direction = "UP"
	// DirectionDown 长下影线, 看涨反转 (hammer)
	DirectionDown Direction = "DOWN"
	DirectionNone Direction = ""
)

// Describe returns the reversal reading of a main shadow direction.
func (d Direction) Describe() string {
	switch d {
	case DirectionUp:
		return "bearish reversal (long upper shadow)"
	case DirectionDown:
		return "bullish reversal (long lower shadow)"
	default:
		return "none"
	}
}

const (
	// ContextSize 上下文K线数量
	ContextSize = 40
	// MinWindowSize 当前K线 + 目标K线 + 上下文
	MinWindowSize = 41
)

// Classification 单根K线的形态判断结果
type Classification struct {
	IsPinbar    bool
	Direction   Direction
	Range       decimal.Decimal
	UpperShadow decimal.Decimal
	LowerShadow decimal.Decimal
}

// DetectionResult 一个交易对+周期在一次扫描中的结果
type DetectionResult struct {
	TradingPair exchange.TradingPair
	Interval    exchange.Interval
	Timestamp   time.Time // 目标K线开盘时间
	Kline       exchange.Kline

	IsPinbar     bool
	IsPriority   bool // 上下文校验通过
	Insufficient bool // K线数量不足, 未做判断
	Direction    Direction
	Details      string

	LastPrice decimal.Decimal
}

type Detector interface {
	Detect(tradingPair exchange.TradingPair, interval exchange.Interval, window []exchange.Kline) DetectionResult
}
