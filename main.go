package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KNICEX/pinbar-monitor/internal/schedule"
	"github.com/KNICEX/pinbar-monitor/internal/service/exchange"
	"github.com/KNICEX/pinbar-monitor/internal/service/exchange/binance"
	"github.com/KNICEX/pinbar-monitor/internal/service/metrics"
	"github.com/KNICEX/pinbar-monitor/internal/service/monitor"
	"github.com/KNICEX/pinbar-monitor/internal/service/strategy"
	"github.com/KNICEX/pinbar-monitor/ioc"
)

func main() {
	cfg, err := ioc.InitConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	ioc.InitLogger(cfg.Log)

	recorder := metrics.New()
	metricsSrv := ioc.InitMetricsServer(cfg.Metrics.Addr, recorder)
	defer ioc.ShutdownMetricsServer(metricsSrv)

	bian := ioc.InitBinanceCli(cfg.Cex.Binance)
	marketSvc := binance.NewMarketService(bian)
	warnUnlisted(binance.NewSymbolService(bian), cfg.Monitor.TradingPairs(), cfg.Monitor.FetchTimeout)
	notifier := ioc.InitNotificationManager(cfg.Notification, recorder)

	pinbarMonitor := monitor.NewPinbarMonitor(strategy.NewPinbarDetector(), marketSvc,
		monitor.WithKlineLimit(cfg.Monitor.KlineLimit),
		monitor.WithFetchTimeout(cfg.Monitor.FetchTimeout),
		monitor.WithRecorder(recorder),
	)
	pairs := monitor.Pairs(cfg.Monitor.TradingPairs(), cfg.Monitor.Intervals())
	task := monitor.NewPinbarMonitorTask(pairs, pinbarMonitor,
		monitor.NewConsolidatedReporter(cfg.Monitor.Location()), notifier,
		monitor.WithTaskRecorder(recorder),
	)

	spec := cfg.Monitor.Schedule()
	scheduler := schedule.NewScheduler(task, spec, schedule.WithRetryBackoff(cfg.Monitor.RetryBackoff))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("pinbar monitor starting",
		"symbols", cfg.Monitor.Symbols,
		"timeframes", cfg.Monitor.Timeframes,
		"schedule", spec.String(),
		"channels", len(notifier.Channels()),
	)
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("scheduler exited", "error", err)
		return
	}
	slog.Info("monitor stopped")
}

// warnUnlisted 启动时提示不可交易的交易对, 不阻止启动
func warnUnlisted(symbolSvc exchange.SymbolService, pairs []exchange.TradingPair, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	unlisted, err := symbolSvc.Unlisted(ctx, pairs)
	if err != nil {
		slog.Warn("failed to check symbol status", "error", err)
		return
	}
	for _, p := range unlisted {
		slog.Warn("symbol is not trading on binance, its scans will fail", "symbol", p.ToSlashString())
	}
}
