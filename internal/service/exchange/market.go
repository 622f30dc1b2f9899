package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TradingPair 交易对
type TradingPair struct {
	Base  string
	Quote string
}

// 常见 Quote 列表, 按长度优先匹配
var knownQuotes = []string{"FDUSD", "USDT", "BUSD", "USDC", "TUSD", "BTC", "ETH", "BNB"}

func SplitSymbol(s string) (string, string) {
	s = strings.ToUpper(s)
	for _, q := range knownQuotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), q
		}
	}
	// fallback
	return s, ""
}

// ParseTradingPair accepts both "BTC/USDT" and "BTCUSDT".
func ParseTradingPair(s string) (TradingPair, error) {
	s = strings.TrimSpace(s)
	var pair TradingPair
	if base, quote, ok := strings.Cut(s, "/"); ok {
		pair = TradingPair{Base: strings.ToUpper(base), Quote: strings.ToUpper(quote)}
	} else {
		pair.Base, pair.Quote = SplitSymbol(s)
	}
	if pair.IsZero() {
		return TradingPair{}, fmt.Errorf("invalid trading pair %q", s)
	}
	return pair, nil
}

func (s TradingPair) IsZero() bool {
	return s.Base == "" || s.Quote == ""
}

func (s TradingPair) ToString() string {
	return fmt.Sprintf("%s%s", s.Base, s.Quote)
}

func (s TradingPair) ToSlashString() string {
	return fmt.Sprintf("%s/%s", s.Base, s.Quote)
}

type Interval string

func (i Interval) ToString() string {
	return string(i)
}

const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval3d  Interval = "3d"
	Interval1w  Interval = "1w"
	Interval1M  Interval = "1M"
)

var intervals = []Interval{
	Interval1m, Interval3m, Interval5m, Interval15m, Interval30m,
	Interval1h, Interval2h, Interval4h, Interval6h, Interval8h, Interval12h,
	Interval1d, Interval3d, Interval1w, Interval1M,
}

// Intervals 返回交易所支持的全部周期
func Intervals() []Interval {
	return append([]Interval(nil), intervals...)
}

func (i Interval) Valid() bool {
	return lo.Contains(intervals, i)
}

type Kline struct {
	OpenTime         time.Time
	CloseTime        time.Time
	Open             decimal.Decimal
	Close            decimal.Decimal
	High             decimal.Decimal
	Low              decimal.Decimal
	Volume           decimal.Decimal // 成交量
	QuoteAssetVolume decimal.Decimal // 成交额
	TradeNum         int64           // 成交笔数
}

type MarketService interface {
	// Ping 连通性检查
	Ping(ctx context.Context) error
	// Ticker 最新成交价, 没有价格时返回 ErrPriceUnavailable
	Ticker(ctx context.Context, tradingPair TradingPair) (decimal.Decimal, error)
	// GetKlines 按开盘时间倒序返回, index 0 为最新(可能未收盘)的K线
	GetKlines(ctx context.Context, req GetKlinesReq) ([]Kline, error)
}

type GetKlinesReq struct {
	TradingPair        TradingPair
	Interval           Interval
	Limit              int
	StartTime, EndTime time.Time
}
