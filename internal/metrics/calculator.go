// Package metrics turns raw engine stats snapshots into derived usage
// numbers. Everything here is pure computation; the adapter feeds it the
// decoded stats payload, which already carries the previous sample in
// PreCPUStats.
package metrics

import (
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"

	"github.com/portside-sh/portside/internal/models"
)

const bytesPerMiB = 1024 * 1024

// CPUPercent computes (Δcpu / Δsystem) × onlineCPUs × 100 from two
// consecutive samples. A non-positive system delta (first sample after
// container start, or clock weirdness) reports 0.
func CPUPercent(s container.StatsResponse) float64 {
	cpuDelta := float64(s.CPUStats.CPUUsage.TotalUsage) - float64(s.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(s.CPUStats.SystemUsage) - float64(s.PreCPUStats.SystemUsage)
	if systemDelta <= 0 || cpuDelta <= 0 {
		return 0
	}

	cpus := float64(s.CPUStats.OnlineCPUs)
	if cpus == 0 {
		// Older engines leave OnlineCPUs unset and report per-CPU buckets.
		cpus = float64(len(s.CPUStats.CPUUsage.PercpuUsage))
	}
	return cpuDelta / systemDelta * cpus * 100
}

// MemoryMB converts a byte count to mebibytes.
func MemoryMB(bytes uint64) float64 {
	return float64(bytes) / bytesPerMiB
}

// MemoryPercent is usage/limit × 100, or 0 when the limit is unset.
func MemoryPercent(usage, limit uint64) float64 {
	if limit == 0 {
		return 0
	}
	return float64(usage) / float64(limit) * 100
}

// NetworkTotals sums rx/tx bytes across all reported interfaces.
func NetworkTotals(networks map[string]container.NetworkStats) (rx, tx uint64) {
	for _, n := range networks {
		rx += n.RxBytes
		tx += n.TxBytes
	}
	return rx, tx
}

// BlockIOTotals sums the "read" and "write" categories of the recursive
// per-device counters. Missing data yields zeros.
func BlockIOTotals(entries []container.BlkioStatEntry) (read, write uint64) {
	for _, e := range entries {
		switch strings.ToLower(e.Op) {
		case "read":
			read += e.Value
		case "write":
			write += e.Value
		}
	}
	return read, write
}

// Compute assembles a full ContainerMetrics record from one decoded
// stats payload.
func Compute(id, name string, s container.StatsResponse, now time.Time) models.ContainerMetrics {
	rx, tx := NetworkTotals(s.Networks)
	read, write := BlockIOTotals(s.BlkioStats.IoServiceBytesRecursive)

	return models.ContainerMetrics{
		ContainerID:        id,
		ContainerName:      name,
		Timestamp:          now,
		CPUUsagePercent:    CPUPercent(s),
		MemoryUsageMB:      MemoryMB(s.MemoryStats.Usage),
		MemoryLimitMB:      MemoryMB(s.MemoryStats.Limit),
		MemoryUsagePercent: MemoryPercent(s.MemoryStats.Usage, s.MemoryStats.Limit),
		NetworkRxBytes:     rx,
		NetworkTxBytes:     tx,
		BlockReadBytes:     read,
		BlockWriteBytes:    write,
		Pids:               s.PidsStats.Current,
	}
}
