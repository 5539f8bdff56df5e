// Package stats provides request statistics tracking for DeskAI.
package stats

import (
	"runtime"
	"sync"
	"time"
)

// Collector collects and tracks request statistics. It is safe for
// concurrent use.
type Collector struct {
	mu            sync.Mutex
	startTime     time.Time
	requestCount  int64
	errorCount    int64
	toolCount     int64
	deterministic int64
	totalDuration int64 // nanoseconds
	routes        map[string]int64
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		routes:    make(map[string]int64),
	}
}

// Stats represents request statistics at a point in time.
type Stats struct {
	// System resources
	MemoryStats MemoryStats `json:"memory"`
	Goroutines  int         `json:"goroutines"`
	Uptime      string      `json:"uptime"`

	// Routing metrics
	RequestCount       int64            `json:"request_count"`
	ErrorCount         int64            `json:"error_count"`
	ToolRequests       int64            `json:"tool_requests"`
	DeterministicCount int64            `json:"deterministic_count"`
	AvgLatencyMs       float64          `json:"avg_latency_ms"`
	Routes             map[string]int64 `json:"routes"`

	// History database
	DBSize   int64   `json:"db_size_bytes"`
	DBSizeMB float64 `json:"db_size_mb"`
	DBPath   string  `json:"db_path,omitempty"`
}

// MemoryStats represents memory usage statistics.
type MemoryStats struct {
	HeapAlloc   int64   `json:"heap_alloc_bytes"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	HeapSys     int64   `json:"heap_sys_bytes"`
	HeapSysMB   float64 `json:"heap_sys_mb"`
	HeapObjects uint64  `json:"heap_objects"`

	NumGC        uint32        `json:"num_gc"`
	GCPauseTotal time.Duration `json:"gc_pause_total"`
}

// Collect returns current statistics.
func (c *Collector) Collect(dbSize int64, dbPath string) *Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.mu.Lock()
	defer c.mu.Unlock()

	avgLatency := float64(0)
	if c.requestCount > 0 {
		avgLatency = float64(c.totalDuration) / float64(c.requestCount) / 1e6 // nanos to millis
	}
	routes := make(map[string]int64, len(c.routes))
	for k, v := range c.routes {
		routes[k] = v
	}

	return &Stats{
		MemoryStats: MemoryStats{
			HeapAlloc:    int64(m.HeapAlloc),
			HeapAllocMB:  bytesToMB(int64(m.HeapAlloc)),
			HeapSys:      int64(m.HeapSys),
			HeapSysMB:    bytesToMB(int64(m.HeapSys)),
			HeapObjects:  m.HeapObjects,
			NumGC:        m.NumGC,
			GCPauseTotal: time.Duration(m.PauseTotalNs),
		},
		Goroutines:         runtime.NumGoroutine(),
		Uptime:             time.Since(c.startTime).Round(time.Second).String(),
		RequestCount:       c.requestCount,
		ErrorCount:         c.errorCount,
		ToolRequests:       c.toolCount,
		DeterministicCount: c.deterministic,
		AvgLatencyMs:       avgLatency,
		Routes:             routes,
		DBSize:             dbSize,
		DBSizeMB:           bytesToMB(dbSize),
		DBPath:             dbPath,
	}
}

// RecordRequest records a completed routed request.
func (c *Collector) RecordRequest(route string, tool, deterministic, failed bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestCount++
	c.totalDuration += duration.Nanoseconds()
	c.routes[route]++
	if tool {
		c.toolCount++
	}
	if deterministic {
		c.deterministic++
	}
	if failed {
		c.errorCount++
	}
}

// GetMetrics returns the request and error counts and the total latency.
func (c *Collector) GetMetrics() (requests, errors int64, totalDuration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestCount, c.errorCount, time.Duration(c.totalDuration)
}

// bytesToMB converts bytes to megabytes.
func bytesToMB(b int64) float64 {
	return float64(b) / 1024 / 1024
}
