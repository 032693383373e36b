package health

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is satisfied by *pgxpool.Pool and the in-memory store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheProbe is satisfied by *cache.Cache.
type CacheProbe interface {
	Enabled() bool
	IsHealthy(ctx context.Context) bool
}

type HealthChecker struct {
	db    Pinger
	cache CacheProbe
	blobs Pinger
	start time.Time
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
	Cache    ComponentHealth `json:"cache"`
	Storage  ComponentHealth `json:"storage"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type DetailedStatus struct {
	HealthStatus
	Uptime        string  `json:"uptime"`
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// NewHealthChecker takes the database and optional cache and blob probes (nil means not configured).
func NewHealthChecker(db Pinger, cache CacheProbe, blobs Pinger) *HealthChecker {
	return &HealthChecker{db: db, cache: cache, blobs: blobs, start: time.Now()}
}

// CheckBasic reports healthy when the database answers. Cache and storage are
// reported but do not fail readiness: the server runs degraded without them.
func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	s := HealthStatus{
		Database: probe(ctx, h.db),
		Cache:    h.checkCache(ctx),
		Storage:  probe(ctx, h.blobs),
	}
	s.Status = statusHealthy
	if s.Database.Status != statusHealthy {
		s.Status = statusUnhealthy
	}
	return s
}

// CheckDetailed adds process and host statistics.
func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	d := DetailedStatus{
		HealthStatus: h.CheckBasic(ctx),
		Uptime:       time.Since(h.start).Round(time.Second).String(),
		Goroutines:   runtime.NumGoroutine(),
	}
	if percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(percents) > 0 {
		d.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		d.MemoryPercent = vm.UsedPercent
		d.MemoryUsed = formatBytes(vm.Used)
		d.MemoryTotal = formatBytes(vm.Total)
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		d.DiskPercent = du.UsedPercent
	}
	return d
}

func (h *HealthChecker) checkCache(ctx context.Context) ComponentHealth {
	if h.cache == nil || !h.cache.Enabled() {
		return ComponentHealth{Status: statusDisabled}
	}
	start := time.Now()
	ok := h.cache.IsHealthy(ctx)
	c := ComponentHealth{Status: statusHealthy, ResponseTime: time.Since(start).Milliseconds()}
	if !ok {
		c.Status = statusUnhealthy
	}
	return c
}

func probe(ctx context.Context, p Pinger) ComponentHealth {
	if p == nil {
		return ComponentHealth{Status: statusDisabled}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	c := ComponentHealth{Status: statusHealthy, ResponseTime: time.Since(start).Milliseconds()}
	if err != nil {
		c.Status = statusUnhealthy
	}
	return c
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
	return fmt.Sprintf("%.1f GB", gb)
}
