package exchange

import (
	"context"
	"errors"
)

var (
	// ErrFetch 行情获取失败(网络/接口/数据解析)
	ErrFetch = errors.New("market data fetch failed")
	// ErrPriceUnavailable 没有最新成交价
	ErrPriceUnavailable = errors.New("price unavailable")
)

// SymbolService 交易对上架状态
type SymbolService interface {
	// Unlisted 返回 pairs 中当前不可交易的交易对, 保持原顺序
	Unlisted(ctx context.Context, pairs []TradingPair) ([]TradingPair, error)
}
