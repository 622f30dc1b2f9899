package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/pinbar-monitor/internal/service/exchange"
	"github.com/KNICEX/pinbar-monitor/pkg/decimalx"
	"github.com/adshao/go-binance/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var _ exchange.MarketService = (*MarketService)(nil)

type MarketService struct {
	cli *binance.Client
}

// NewMarketService 创建现货市场数据服务
func NewMarketService(cli *binance.Client) *MarketService {
	return &MarketService{cli: cli}
}

func (m *MarketService) Ping(ctx context.Context) error {
	if err := m.cli.NewPingService().Do(ctx); err != nil {
		return fmt.Errorf("%w: ping binance: %v", exchange.ErrFetch, err)
	}
	return nil
}

func (m *MarketService) convertKline(k *binance.Kline) (exchange.Kline, error) {
	ds, err := decimalx.FromStrings(k.Open, k.Close, k.High, k.Low, k.Volume, k.QuoteAssetVolume)
	if err != nil {
		return exchange.Kline{}, err
	}
	return exchange.Kline{
		OpenTime:         time.UnixMilli(k.OpenTime),
		CloseTime:        time.UnixMilli(k.CloseTime),
		Open:             ds[0],
		Close:            ds[1],
		High:             ds[2],
		Low:              ds[3],
		Volume:           ds[4],
		QuoteAssetVolume: ds[5],
		TradeNum:         k.TradeNum,
	}, nil
}

// GetKlines 币安按时间正序返回, 这里翻转成最新在前
func (m *MarketService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	svc := m.cli.NewKlinesService().Symbol(req.TradingPair.ToString()) // 币安API使用 BTCUSDT 格式，不是 BTC/USDT
	if req.Interval.ToString() != "" {
		svc.Interval(req.Interval.ToString())
	}
	if req.Limit > 0 {
		svc.Limit(req.Limit)
	}
	if !req.StartTime.IsZero() {
		svc.StartTime(req.StartTime.UnixMilli())
	}
	if !req.EndTime.IsZero() {
		svc.EndTime(req.EndTime.UnixMilli())
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: klines %s %s: %v", exchange.ErrFetch, req.TradingPair.ToString(), req.Interval, err)
	}

	kls := make([]exchange.Kline, 0, len(res))
	for _, k := range lo.Reverse(res) {
		kl, err := m.convertKline(k)
		if err != nil {
			return nil, fmt.Errorf("%w: klines %s %s: %v", exchange.ErrFetch, req.TradingPair.ToString(), req.Interval, err)
		}
		kls = append(kls, kl)
	}
	return kls, nil
}

func (m *MarketService) Ticker(ctx context.Context, tradingPair exchange.TradingPair) (decimal.Decimal, error) {
	prices, err := m.cli.NewListPricesService().Symbol(tradingPair.ToString()).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: ticker %s: %v", exchange.ErrFetch, tradingPair.ToString(), err)
	}
	if len(prices) == 0 || prices[0].Price == "" {
		return decimal.Zero, fmt.Errorf("%w: %s", exchange.ErrPriceUnavailable, tradingPair.ToSlashString())
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", exchange.ErrPriceUnavailable, tradingPair.ToSlashString(), err)
	}
	return price, nil
}
