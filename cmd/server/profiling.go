package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"sync"
	"time"
)

// ProfilingConfig holds configuration for profiling
type ProfilingConfig struct {
	Enabled        bool
	Port           string
	ReportInterval time.Duration
}

// StartProfiling starts the profiling server and sets up profiling
func StartProfiling(config ProfilingConfig) {
	if !config.Enabled {
		return
	}

	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)

	// pprof registers on the default mux, which the game server does not use.
	if config.Port != "" {
		go func() {
			log.Printf("Starting pprof server on :%s", config.Port)
			if err := http.ListenAndServe(":"+config.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}

	log.Printf("Profiling enabled. Access profiles at:")
	log.Printf("  - CPU: curl http://localhost:%s/debug/pprof/profile?seconds=30 > cpu.prof", config.Port)
	log.Printf("  - Memory: curl http://localhost:%s/debug/pprof/heap > mem.prof", config.Port)
	log.Printf("  - Mutex: curl http://localhost:%s/debug/pprof/mutex > mutex.prof", config.Port)
}

// GetProfilingConfigFromEnv creates profiling config from environment variables
func GetProfilingConfigFromEnv() ProfilingConfig {
	enabled := os.Getenv("ENABLE_PROFILING") == "true"
	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = "42069"
	}
	interval, err := time.ParseDuration(os.Getenv("METRICS_INTERVAL"))
	if err != nil {
		interval = 0
	}

	return ProfilingConfig{
		Enabled:        enabled,
		Port:           port,
		ReportInterval: interval,
	}
}

// PerformanceMetrics tracks placement and scoring throughput.
type PerformanceMetrics struct {
	mu               sync.Mutex
	placements       int64
	merges           int64
	scored           int64
	avgPlacementTime time.Duration
	slowestPlacement time.Duration
	peakGoroutines   int
	peakMemoryUsage  uint64
	startTime        time.Time
}

// MetricsSnapshot is a copy of the counters safe to serialize.
type MetricsSnapshot struct {
	Uptime           string `json:"uptime"`
	Placements       int64  `json:"placements"`
	Merges           int64  `json:"merges"`
	FeaturesScored   int64  `json:"featuresScored"`
	AvgPlacementTime string `json:"avgPlacementTime"`
	SlowestPlacement string `json:"slowestPlacement"`
	PeakGoroutines   int    `json:"peakGoroutines"`
	PeakMemoryUsage  uint64 `json:"peakMemoryUsage"`
}

func NewPerformanceMetrics() *PerformanceMetrics {
	return &PerformanceMetrics{
		startTime: time.Now(),
	}
}

// TrackPlacement records one accepted placement and how many features it merged.
func (pm *PerformanceMetrics) TrackPlacement(duration time.Duration, merged int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.placements++
	pm.merges += int64(merged)
	pm.avgPlacementTime = (pm.avgPlacementTime*time.Duration(pm.placements-1) + duration) / time.Duration(pm.placements)
	pm.slowestPlacement = max(pm.slowestPlacement, duration)
}

func (pm *PerformanceMetrics) TrackScoring(features int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.scored += int64(features)
}

// UpdateSystemMetrics updates system-level metrics
func (pm *PerformanceMetrics) UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	goroutines := runtime.NumGoroutine()

	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.peakGoroutines = max(pm.peakGoroutines, goroutines)
	pm.peakMemoryUsage = max(pm.peakMemoryUsage, m.Alloc)
}

func (pm *PerformanceMetrics) Snapshot() MetricsSnapshot {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	return MetricsSnapshot{
		Uptime:           time.Since(pm.startTime).Round(time.Second).String(),
		Placements:       pm.placements,
		Merges:           pm.merges,
		FeaturesScored:   pm.scored,
		AvgPlacementTime: pm.avgPlacementTime.String(),
		SlowestPlacement: pm.slowestPlacement.String(),
		PeakGoroutines:   pm.peakGoroutines,
		PeakMemoryUsage:  pm.peakMemoryUsage,
	}
}

// LogMetrics logs current performance metrics
func (pm *PerformanceMetrics) LogMetrics(logger Logger) {
	pm.UpdateSystemMetrics()
	s := pm.Snapshot()
	logger.Printf("=== Performance Metrics ===")
	logger.Printf("Uptime: %s", s.Uptime)
	logger.Printf("Placements: %d (merges: %d)", s.Placements, s.Merges)
	logger.Printf("Features scored: %d", s.FeaturesScored)
	logger.Printf("Average placement time: %s (slowest %s)", s.AvgPlacementTime, s.SlowestPlacement)
	logger.Printf("Peak goroutines: %d", s.PeakGoroutines)
	logger.Printf("Peak memory usage: %d bytes", s.PeakMemoryUsage)
}

// StartMetricsReporting starts periodic metrics reporting
func StartMetricsReporting(metrics *PerformanceMetrics, logger Logger, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			metrics.LogMetrics(logger)
		}
	}()
}
