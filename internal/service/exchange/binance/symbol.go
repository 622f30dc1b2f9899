package binance

import (
	"context"
	"fmt"

	"github.com/KNICEX/pinbar-monitor/internal/service/exchange"
	"github.com/adshao/go-binance/v2"
	"github.com/samber/lo"
)

const symbolStatusTrading = "TRADING"

var _ exchange.SymbolService = (*SymbolService)(nil)

type SymbolService struct {
	cli *binance.Client
}

func NewSymbolService(cli *binance.Client) *SymbolService {
	return &SymbolService{cli: cli}
}

// Unlisted 过滤掉已下架或暂停交易的交易对
func (svc *SymbolService) Unlisted(ctx context.Context, pairs []exchange.TradingPair) ([]exchange.TradingPair, error) {
	info, err := svc.cli.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange info: %v", exchange.ErrFetch, err)
	}

	trading := lo.SliceToMap(lo.Filter(info.Symbols, func(s binance.Symbol, _ int) bool {
		return s.Status == symbolStatusTrading
	}), func(s binance.Symbol) (string, struct{}) {
		return s.Symbol, struct{}{}
	})

	return lo.Reject(pairs, func(p exchange.TradingPair, _ int) bool {
		_, ok := trading[p.ToString()]
		return ok
	}), nil
}
