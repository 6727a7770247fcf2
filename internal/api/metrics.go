package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessMetrics снимает показатели процесса инспектора
type ProcessMetrics struct {
	StartTime time.Time
	proc      *process.Process
}

// ProcessStats снимок показателей процесса для /api/stats
type ProcessStats struct {
	Uptime     string  `json:"uptime"`
	UptimeSec  int64   `json:"uptime_seconds"`
	MemoryMB   float64 `json:"memory_mb"`
	HeapMB     float64 `json:"heap_mb"`
	NumGC      uint32  `json:"num_gc"`
	Goroutines int     `json:"goroutines"`
	CPUPercent float64 `json:"cpu_percent"`
}

// NewProcessMetrics создаёт сборщик для текущего процесса
func NewProcessMetrics() *ProcessMetrics {
	pm := &ProcessMetrics{StartTime: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		pm.proc = proc
	}
	return pm
}

// Uptime время работы в виде "1д 2ч 3м 4с"
func (pm *ProcessMetrics) Uptime() string {
	return formatUptime(time.Since(pm.StartTime))
}

func formatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// CPUPercent загрузка CPU процессом; при ошибке берётся системная загрузка
func (pm *ProcessMetrics) CPUPercent() (float64, error) {
	if pm.proc != nil {
		if percent, err := pm.proc.CPUPercent(); err == nil {
			return percent, nil
		}
	}
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}

// Snapshot собирает все показатели разом. Ошибка CPU не фатальна: поле остаётся нулём.
func (pm *ProcessMetrics) Snapshot() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(pm.StartTime)
	stats := ProcessStats{
		Uptime:     formatUptime(uptime),
		UptimeSec:  int64(uptime.Seconds()),
		MemoryMB:   float64(m.Alloc) / 1024 / 1024,
		HeapMB:     float64(m.HeapAlloc) / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
	if percent, err := pm.CPUPercent(); err == nil {
		stats.CPUPercent = percent
	}
	return stats
}
