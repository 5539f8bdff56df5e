package executor

import (
	"context"
	"os"
	"runtime"
	"time"
)

// SystemInfo reports the operating system and CPU architecture.
type SystemInfo struct{}

func (t *SystemInfo) Name() string        { return "system_info" }
func (t *SystemInfo) Description() string { return "Show the operating system and architecture" }

func (t *SystemInfo) Execute(ctx context.Context, params map[string]string) (*Result, error) {
	start := time.Now()

	info := map[string]any{
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpu_count":  runtime.NumCPU(),
		"go_version": runtime.Version(),
		"hostname":   hostname(),
	}

	return TimedResult(NewResult("System: "+runtime.GOOS+" "+runtime.GOARCH, info), start), nil
}

func hostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
