package api

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/logger"
)

// MemoryInfo reports host and process memory in megabytes.
type MemoryInfo struct {
	TotalMB     float64 `json:"total_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
	ProcessMB   float64 `json:"process_mb"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string      `json:"status"`
	Version       string      `json:"version"`
	BuildDate     string      `json:"build_date"`
	Environment   string      `json:"environment"`
	Timestamp     string      `json:"timestamp"`
	Uptime        string      `json:"uptime"`
	UptimeSeconds float64     `json:"uptime_seconds"`
	Records       int         `json:"records"`
	Capacity      int         `json:"capacity"`
	Memory        *MemoryInfo `json:"memory,omitempty"`
}

// HealthCheck handles the API health check endpoint.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	now := c.now()
	uptime := now.Sub(c.startTime)

	environment := "production"
	if c.Settings.WebServer.Debug || c.Settings.Debug {
		environment = "development"
	}

	store := c.Engine.Store()
	return ctx.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       c.build.GetVersion(),
		BuildDate:     c.build.GetBuildDate(),
		Environment:   environment,
		Timestamp:     now.Format(time.RFC3339),
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: uptime.Seconds(),
		Records:       store.Len(),
		Capacity:      store.Capacity(),
		Memory:        c.memoryInfo(),
	})
}

// memoryInfo returns nil when host statistics are unavailable.
func (c *Controller) memoryInfo() *MemoryInfo {
	vm, err := mem.VirtualMemory()
	if err != nil {
		c.log.Debug("memory statistics unavailable", logger.Error(err))
		return nil
	}
	info := &MemoryInfo{
		TotalMB:     toMB(vm.Total),
		UsedMB:      toMB(vm.Used),
		UsedPercent: vm.UsedPercent,
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if pm, err := proc.MemoryInfo(); err == nil && pm != nil {
			info.ProcessMB = toMB(pm.RSS)
		}
	}
	return info
}

func toMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}

// Index handles GET / with a short status document.
func (c *Controller) Index(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"name":             conf.AppName,
		"status":           "running",
		"total_detections": c.Engine.Store().Len(),
		"endpoints": []string{
			"POST /upload",
			"GET /detections",
			"GET /heatmap",
			"GET /hotspots",
			"GET /ai-insights",
			"GET /predictions",
			"GET /stats",
			"DELETE /clear",
			"GET " + Prefix + "/health",
		},
	})
}
