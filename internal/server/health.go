package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// healthHandler reports the dataset, history backend and host stats.
func (s *Server) healthHandler(c echo.Context) error {
	ctx := c.Request().Context()
	status := "online"

	dataset := map[string]interface{}{"status": "down"}
	if s.Table != nil && s.Table.Len() > 0 {
		dataset["status"] = "up"
		dataset["items"] = s.Table.Len()
		dataset["categories"] = s.Table.CountByCategory()
	} else {
		status = "degraded"
	}

	historyInfo := map[string]interface{}{"backend": s.opts.HistoryBackend}
	if s.DB != nil {
		dbHealth := s.DB.Health()
		historyInfo["database"] = dbHealth
		if dbHealth["status"] != "up" {
			status = "degraded"
		}
	}

	chatInfo := map[string]interface{}{
		"scope":        string(s.Chats.Scope()),
		"sessions":     s.Chats.Len(),
		"open_sockets": s.hub.Len(),
	}

	runtime := map[string]interface{}{
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"start_time": s.startTime.Format(time.RFC3339),
	}
	if hInfo, err := host.InfoWithContext(ctx); err == nil {
		runtime["os"] = hInfo.OS
		runtime["platform"] = hInfo.Platform
		runtime["arch"] = hInfo.KernelArch
		runtime["hostname"] = hInfo.Hostname
	}

	resp := map[string]interface{}{
		"status":  status,
		"dataset": dataset,
		"history": historyInfo,
		"textgen": map[string]string{"provider": s.opts.TextGenProvider},
		"chat":    chatInfo,
		"runtime": runtime,
	}

	// Interval 0 compares against the previous call instead of blocking.
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		cores, _ := cpu.CountsWithContext(ctx, true)
		resp["cpu"] = map[string]interface{}{
			"usage_percent": fmt.Sprintf("%.2f%%", cpuPercent[0]),
			"cores":         cores,
		}
	}

	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		resp["memory"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(v.Used)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
			"free_gb":      fmt.Sprintf("%.2f GB", float64(v.Free)/1024/1024/1024),
		}
	}

	if d, err := disk.UsageWithContext(ctx, "/"); err == nil {
		resp["disk"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(d.Total)/1024/1024/1024),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(d.Used)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", d.UsedPercent),
		}
	}

	code := http.StatusOK
	if status != "online" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
