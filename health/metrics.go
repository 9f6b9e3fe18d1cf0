package health

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Metrics of the running process.
type Metrics struct {
	Uptime     time.Duration
	RSSBytes   uint64
	Goroutines int
	// Percentage of the host's memory in use
	SystemMemory float64
}

// Collect gathers the metrics of the current process,
// started at the provided time.
func Collect(started time.Time) (*Metrics, error) {
	metrics := &Metrics{
		Uptime:     time.Since(started),
		Goroutines: runtime.NumGoroutine(),
	}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return metrics, fmt.Errorf("failed to get process info: %w", err)
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return metrics, fmt.Errorf("failed to get process memory info: %w", err)
	}
	metrics.RSSBytes = info.RSS

	virtualMem, err := mem.VirtualMemory()
	if err != nil {
		return metrics, fmt.Errorf("failed to get virtual memory info: %w", err)
	}
	metrics.SystemMemory = virtualMem.UsedPercent
	return metrics, nil
}

// FormatUptime formats the duration as h:mm:ss, prefixed
// with the number of days when longer than a day.
func FormatUptime(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / 86400
	seconds %= 86400
	s := fmt.Sprintf("%d:%.2d:%.2d", seconds/3600, (seconds%3600)/60, seconds%60)
	switch {
	case days == 1:
		return "1 day, " + s
	case days > 1:
		return fmt.Sprintf("%d days, %s", days, s)
	}
	return s
}
