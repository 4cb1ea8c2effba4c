package usecase

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/V4T54L/runtime-analytics/internal/adapter/metrics"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func logLine(ts string, configs int, riskdate string, id int, typ, runDate string, duration int) string {
	return fmt.Sprintf("%s INFO Export completed config_count:%d riskdate:%s id:%d type:%s on %s %dh:%dm in duration:%d seconds.",
		ts, configs, riskdate, id, typ, runDate, duration/3600, duration%3600/60, duration)
}

// hundredLineFile has five job identities that each run twice on 2025-07-07,
// padded with lines that do not match the export grammar.
func hundredLineFile() string {
	types := []string{"SNSI", "STDV", "STRV", "PSTR", "FSTR"}
	var lines []string
	for run := 0; run < 2; run++ {
		for i, typ := range types {
			ts := fmt.Sprintf("2025-07-07 %02d:%02d:00,000", 1+run*10, i)
			lines = append(lines, logLine(ts, 10+i, "2025-07-04", i+1, typ, "2025-07-07", 60*(i+1)+run))
		}
	}
	for len(lines) < 100 {
		lines = append(lines, fmt.Sprintf("2025-07-07 00:00:00,000 DEBUG heartbeat %d", len(lines)))
	}
	return strings.Join(lines, "\n") + "\n"
}
