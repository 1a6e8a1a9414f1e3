// Package sysmetrics samples host resource usage for the periodic
// health-snapshot task.
package sysmetrics

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot is one sample of host resource usage.
type Snapshot struct {
	CPUPercent  float64
	MemPercent  float64
	MemUsedMB   uint64
	DiskPercent float64
}

// Collect samples CPU, memory and root-filesystem usage.
func Collect(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	cpuPct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return snap, fmt.Errorf("cpu percent: %w", err)
	}
	if len(cpuPct) > 0 {
		snap.CPUPercent = cpuPct[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return snap, fmt.Errorf("virtual memory: %w", err)
	}
	snap.MemPercent = vm.UsedPercent
	snap.MemUsedMB = vm.Used / (1 << 20)

	du, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return snap, fmt.Errorf("disk usage: %w", err)
	}
	snap.DiskPercent = du.UsedPercent

	return snap, nil
}
