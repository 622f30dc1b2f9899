package strategy

import (
	"fmt"
	"log/slog"

	"github.com/KNICEX/pinbar-monitor/internal/service/exchange"
	"github.com/KNICEX/pinbar-monitor/pkg/decimalx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type pinbarDetector struct{}

func NewPinbarDetector() Detector {
	return &pinbarDetector{}
}

// Detect 判断已收盘的最新K线(index 1)是否为 pinbar, 并用之前的40根K线校验位置
func (d *pinbarDetector) Detect(tradingPair exchange.TradingPair, interval exchange.Interval, window []exchange.Kline) DetectionResult {
	res := DetectionResult{
		TradingPair: tradingPair,
		Interval:    interval,
	}

	if len(window) < MinWindowSize {
		slog.Warn("insufficient klines for pinbar detection",
			"symbol", tradingPair.ToSlashString(), "interval", interval, "count", len(window), "need", MinWindowSize)
		res.Insufficient = true
		return res
	}

	target := window[1]
	prev := window[2:min(len(window), 2+ContextSize)]

	res.Timestamp = target.OpenTime
	res.Kline = target

	cls := Classify(target)
	if !cls.IsPinbar {
		return res
	}

	res.IsPinbar = true
	res.Direction = cls.Direction
	slog.Info("pinbar detected", "symbol", tradingPair.ToSlashString(), "interval", interval,
		"open_time", target.OpenTime, "direction", cls.Direction)

	prices := fmt.Sprintf("Price: open=%s, high=%s, low=%s, close=%s",
		target.Open, target.High, target.Low, target.Close)
	if ValidateContext(target, prev) {
		res.IsPriority = true
		res.Details = fmt.Sprintf("Direction: %s, %s", cls.Direction.Describe(), prices)
	} else {
		res.Details = prices
	}
	return res
}

// Classify 主影线长度 > 整根K线长度的 2/3 即为 pinbar
func Classify(k exchange.Kline) Classification {
	cls := Classification{
		Range:       k.High.Sub(k.Low),
		UpperShadow: k.High.Sub(decimal.Max(k.Open, k.Close)),
		LowerShadow: decimal.Min(k.Open, k.Close).Sub(k.Low),
	}
	// 上下影线相等时归为 DOWN
	cls.Direction = DirectionDown
	if cls.UpperShadow.GreaterThan(cls.LowerShadow) {
		cls.Direction = DirectionUp
	}

	// high <= low 视为无效K线
	if !cls.Range.IsPositive() {
		return cls
	}

	mainShadow := decimal.Max(cls.UpperShadow, cls.LowerShadow)
	cls.IsPinbar = decimalx.ExceedsTwoThirds(mainShadow, cls.Range)
	return cls
}

// ValidateContext pinbar 需要出现在近期高点/低点附近, 或者整根跳空越过该极值
func ValidateContext(target exchange.Kline, prev []exchange.Kline) bool {
	if len(prev) == 0 {
		return false
	}
	pinbarRange := target.High.Sub(target.Low)

	switch Classify(target).Direction {
	case DirectionUp:
		highs := lo.Map(prev, func(item exchange.Kline, index int) decimal.Decimal {
			return item.High
		})
		maxPrevHigh := decimal.Max(highs[0], highs[1:]...)

		nearHigh := target.High.Sub(maxPrevHigh).Abs().LessThan(pinbarRange)
		gapUp := target.Low.GreaterThan(maxPrevHigh)
		slog.Debug("pinbar context", "direction", DirectionUp, "near_high", nearHigh, "gap_up", gapUp)
		return nearHigh || gapUp
	default:
		lows := lo.Map(prev, func(item exchange.Kline, index int) decimal.Decimal {
			return item.Low
		})
		minPrevLow := decimal.Min(lows[0], lows[1:]...)

		nearLow := target.Low.Sub(minPrevLow).Abs().LessThan(pinbarRange)
		gapDown := target.High.LessThan(minPrevLow)
		slog.Debug("pinbar context", "direction", DirectionDown, "near_low", nearLow, "gap_down", gapDown)
		return nearLow || gapDown
	}
}
