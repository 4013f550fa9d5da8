package runtime

import (
	"context"
	"convo-hub/domain/event"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// StatsReporter periodically logs how many subscriptions the registry holds,
// along with the memory and CPU used by the process.
// It runs under the supervisor next to the topic dispatchers.
type StatsReporter struct {
	log      *slog.Logger
	registry *Registry
	interval time.Duration
}

func NewStatsReporter(log *slog.Logger, registry *Registry, interval time.Duration) *StatsReporter {
	return &StatsReporter{log: log, registry: registry, interval: interval}
}

// ProcessStats is the resource usage of the running process.
type ProcessStats struct {
	RSSBytes   uint64
	CPUPercent float64
}

// Run logs a snapshot on every tick and a last one on shutdown.
func (w *StatsReporter) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return fmt.Errorf("cannot inspect own process: %w", err)
	}
	startTime := time.Now()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report(p, startTime)
			return nil
		case <-ticker.C:
			w.report(p, startTime)
		}
	}
}

func (w *StatsReporter) report(p *process.Process, startTime time.Time) {
	stats := w.registry.Stats()
	attrs := []any{
		"uptime", time.Since(startTime).Round(time.Second).String(),
		"subscriptions", stats.Subscriptions,
		"sessions", stats.Sessions,
	}
	for _, topic := range event.Topics {
		attrs = append(attrs, string(topic), stats.PerTopic[topic])
	}
	if self, err := SelfStats(p); err != nil {
		w.log.Warn("Failed to collect process stats", "error", err)
	} else {
		attrs = append(attrs, "rss_mb", self.RSSBytes/1024/1024, "cpu_percent", self.CPUPercent)
	}
	w.log.Info("Registry stats", attrs...)
}

// SelfStats reads the resident memory and CPU usage of p.
func SelfStats(p *process.Process) (ProcessStats, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	return ProcessStats{RSSBytes: memInfo.RSS, CPUPercent: cpuPercent}, nil
}
