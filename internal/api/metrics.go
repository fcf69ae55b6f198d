package api

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics собирает сведения о процессе для /api/stats
type ServerMetrics struct {
	StartTime time.Time
	proc      *process.Process
}

// ProcessStats содержит снимок состояния процесса
type ProcessStats struct {
	Uptime      string  `json:"uptime"`
	CPUPercent  float64 `json:"cpu_percent"`
	SystemCPU   float64 `json:"system_cpu_percent"`
	RSSMB       float64 `json:"rss_mb"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	NumGC       uint32  `json:"num_gc"`
	Goroutines  int     `json:"goroutines"`
	ServerTime  int64   `json:"server_time"`
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	sm := &ServerMetrics{StartTime: time.Now()}
	// Без доступа к /proc метрики процесса просто остаются нулевыми
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		sm.proc = proc
	}
	return sm
}

// Uptime возвращает время работы сервера с точностью до секунды
func (sm *ServerMetrics) Uptime() time.Duration {
	return time.Since(sm.StartTime).Truncate(time.Second)
}

// Snapshot собирает текущие показатели. Не блокируется на замер CPU:
// проценты считаются от предыдущего вызова.
func (sm *ServerMetrics) Snapshot() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := ProcessStats{
		Uptime:      sm.Uptime().String(),
		HeapAllocMB: float64(m.HeapAlloc) / 1024 / 1024,
		NumGC:       m.NumGC,
		Goroutines:  runtime.NumGoroutine(),
		ServerTime:  time.Now().Unix(),
	}

	if sm.proc != nil {
		if pct, err := sm.proc.CPUPercent(); err == nil {
			stats.CPUPercent = pct
		}
		if mem, err := sm.proc.MemoryInfo(); err == nil {
			stats.RSSMB = float64(mem.RSS) / 1024 / 1024
		}
	}
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		stats.SystemCPU = pcts[0]
	}
	return stats
}
