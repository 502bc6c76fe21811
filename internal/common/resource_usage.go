package common

import (
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceUsage represents process and host resource usage at one point in time
type ResourceUsage struct {
	AllocMB              int64   // Currently allocated memory by application
	SysMB                int64   // System memory used by Go runtime
	RSSMB                int64   // Resident set size of this process
	Goroutines           int     // Number of goroutines
	SystemMemUsedPercent float64 // System memory used percentage
	CPUUsagePercent      float64 // Process CPU usage since start
}

// GetResourceUsage returns current resource usage statistics.
// Host/process probes that fail leave their fields zeroed.
func GetResourceUsage() ResourceUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage := ResourceUsage{
		AllocMB:    int64(m.Alloc / 1024 / 1024),
		SysMB:      int64(m.Sys / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemUsedPercent = vmStat.UsedPercent
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil {
			usage.RSSMB = int64(memInfo.RSS / 1024 / 1024)
		}
		if cpuPercent, err := proc.CPUPercent(); err == nil {
			usage.CPUUsagePercent = cpuPercent
		}
	}

	return usage
}

// LogResourceUsage writes the current usage as a single debug-friendly info line.
func LogResourceUsage(logger zerolog.Logger) {
	usage := GetResourceUsage()
	logger.Info().
		Int64("alloc_mb", usage.AllocMB).
		Int64("sys_mb", usage.SysMB).
		Int64("rss_mb", usage.RSSMB).
		Int("goroutines", usage.Goroutines).
		Float64("system_mem_used_percent", usage.SystemMemUsedPercent).
		Float64("cpu_percent", usage.CPUUsagePercent).
		Msg("Resource usage")
}
