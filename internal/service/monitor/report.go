package monitor

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/KNICEX/pinbar-monitor/internal/service/notification"
	"github.com/KNICEX/pinbar-monitor/internal/service/strategy"
	"github.com/samber/lo"
)

const (
	timeLayout     = "2006-01-02 15:04:05"
	priorityMarker = "[PRIORITY]"
)

var separator = strings.Repeat("-", 30)

var _ Reporter = (*ConsolidatedReporter)(nil)

// ConsolidatedReporter 把一次扫描的全部 pinbar 汇总成一条通知
type ConsolidatedReporter struct {
	loc *time.Location
}

func NewConsolidatedReporter(loc *time.Location) *ConsolidatedReporter {
	if loc == nil {
		loc = time.Local
	}
	return &ConsolidatedReporter{loc: loc}
}

// Aggregate 重点信号在前, 同级保持扫描顺序. results 不能为空
func (r *ConsolidatedReporter) Aggregate(results []strategy.DetectionResult, scanTime time.Time) notification.Message {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b strategy.DetectionResult) int {
		switch {
		case a.IsPriority == b.IsPriority:
			return 0
		case a.IsPriority:
			return -1
		default:
			return 1
		}
	})

	lines := []string{
		fmt.Sprintf("Scan time: %s", scanTime.In(r.loc).Format(timeLayout)),
		fmt.Sprintf("Pinbars flagged: %d", len(sorted)),
		strings.Repeat("=", 30),
		"",
	}
	for _, res := range sorted {
		header := fmt.Sprintf("%s (%s)", res.TradingPair.ToSlashString(), res.Interval)
		if res.IsPriority {
			header = priorityMarker + " " + header
		}
		lines = append(lines,
			header,
			fmt.Sprintf("Candle time: %s", res.Timestamp.In(r.loc).Format(timeLayout)),
			fmt.Sprintf("Details: %s", res.Details),
		)
		if !res.LastPrice.IsZero() {
			lines = append(lines, fmt.Sprintf("Last price: %s", res.LastPrice))
		}
		lines = append(lines, "", separator, "")
	}

	level := notification.LevelInfo
	if lo.SomeBy(sorted, func(item strategy.DetectionResult) bool { return item.IsPriority }) {
		level = notification.LevelSuccess
	}

	return notification.Message{
		Title:     fmt.Sprintf("Pinbar report - %d pinbar(s) found", len(sorted)),
		Content:   strings.Join(lines, "\n"),
		Level:     level,
		Timestamp: scanTime,
	}
}
