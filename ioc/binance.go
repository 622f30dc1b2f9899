package ioc

import (
	"net/http"

	"github.com/KNICEX/pinbar-monitor/internal/config"
	"github.com/adshao/go-binance/v2"
)

func InitBinanceCli(cfg config.BinanceConfig) *binance.Client {
	cli := binance.NewClient(cfg.ApiKey, cfg.ApiSecret)
	if cfg.BaseURL != "" {
		cli.BaseURL = cfg.BaseURL
	}
	cli.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return cli
}
