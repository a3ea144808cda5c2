package handlers

import (
	"fmt"
	"runtime"
)

// memStats is the process memory summary reported by /health
type memStats struct {
	Alloc      string `json:"alloc"`
	Sys        string `json:"sys"`
	HeapInuse  string `json:"heapInuse"`
	NumGC      uint32 `json:"numGC"`
	Goroutines int    `json:"goroutines"`
}

func readMemStats() memStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return memStats{
		Alloc:      formatBytes(m.Alloc),
		Sys:        formatBytes(m.Sys),
		HeapInuse:  formatBytes(m.HeapInuse),
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
}

// formatBytes converts bytes to human-readable format
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
