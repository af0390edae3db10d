// Package stats publishes process runtime statistics as otel gauges.
package stats

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel/metric"
)

type collector struct {
	proc *process.Process

	rss        metric.Int64ObservableGauge
	cpuPercent metric.Float64ObservableGauge
	heapAlloc  metric.Int64ObservableGauge
	goroutines metric.Int64ObservableGauge
	numGC      metric.Int64ObservableGauge
}

// Register adds process gauges to meter. They are sampled on every
// collection until the returned registration is unregistered.
func Register(meter metric.Meter) (metric.Registration, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}

	c := &collector{proc: proc}

	if c.rss, err = meter.Int64ObservableGauge("process_rss",
		metric.WithUnit("By"), metric.WithDescription("resident set size")); err != nil {
		return nil, err
	}
	if c.cpuPercent, err = meter.Float64ObservableGauge("process_cpu_percent",
		metric.WithUnit("%")); err != nil {
		return nil, err
	}
	if c.heapAlloc, err = meter.Int64ObservableGauge("go_heap_alloc",
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if c.goroutines, err = meter.Int64ObservableGauge("go_goroutines"); err != nil {
		return nil, err
	}
	if c.numGC, err = meter.Int64ObservableGauge("go_gc_cycles"); err != nil {
		return nil, err
	}

	return meter.RegisterCallback(c.observe, c.rss, c.cpuPercent, c.heapAlloc, c.goroutines, c.numGC)
}

func (c *collector) observe(ctx context.Context, o metric.Observer) error {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	o.ObserveInt64(c.heapAlloc, int64(memStats.HeapAlloc))
	o.ObserveInt64(c.numGC, int64(memStats.NumGC))
	o.ObserveInt64(c.goroutines, int64(runtime.NumGoroutine()))

	if memInfo, err := c.proc.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
		o.ObserveInt64(c.rss, int64(memInfo.RSS))
	}
	if cpuPercent, err := c.proc.CPUPercentWithContext(ctx); err == nil {
		o.ObserveFloat64(c.cpuPercent, cpuPercent)
	}
	return nil
}
