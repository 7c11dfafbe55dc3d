package resources

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

const gib = 1 << 30

// unknownMemory stands in when the probe cannot read total memory.
const unknownMemory = 8 * gib

// Probe reports host capacity.
type Probe interface {
	PhysicalCores(ctx context.Context) (int, error)
	TotalMemory(ctx context.Context) (uint64, error)
}

// HostProbe reads the current machine through gopsutil.
type HostProbe struct{}

func (HostProbe) PhysicalCores(ctx context.Context) (int, error) {
	n, err := cpu.CountsWithContext(ctx, false)
	if err != nil || n <= 0 {
		// Some containers hide topology; logical count is the next best.
		return runtime.NumCPU(), err
	}
	return n, nil
}

func (HostProbe) TotalMemory(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Total, nil
}

// Static is a fixed Probe for tests and overrides.
type Static struct {
	Cores  int
	Memory uint64
}

func (s Static) PhysicalCores(context.Context) (int, error) { return s.Cores, nil }

func (s Static) TotalMemory(context.Context) (uint64, error) { return s.Memory, nil }

// Plan is the worker and batch sizing for one run.
type Plan struct {
	Cores          int
	MemoryBytes    uint64
	MemoryKnown    bool
	Workers        int
	FilesPerWorker int
	Multiplier     int
}

// Overrides caps or replaces probed values. Zero means no override.
type Overrides struct {
	MaxWorkers     int
	FilesPerWorker int
}

// NewPlan sizes a run from probe readings. Probe errors fall back to safe
// defaults rather than failing the run.
func NewPlan(ctx context.Context, probe Probe, overrides Overrides) Plan {
	if probe == nil {
		probe = HostProbe{}
	}
	plan := Plan{}

	cores, err := probe.PhysicalCores(ctx)
	if err != nil && cores <= 0 {
		cores = runtime.NumCPU()
	}
	plan.Cores = max(cores, 1)
	plan.Workers = WorkersFor(plan.Cores)
	if overrides.MaxWorkers > 0 {
		plan.Workers = min(plan.Workers, overrides.MaxWorkers)
	}

	total, err := probe.TotalMemory(ctx)
	plan.MemoryKnown = err == nil && total > 0
	plan.MemoryBytes = total
	if !plan.MemoryKnown {
		plan.MemoryBytes = unknownMemory
	}
	plan.FilesPerWorker = FilesPerWorkerFor(plan.MemoryBytes)
	if overrides.FilesPerWorker > 0 {
		plan.FilesPerWorker = overrides.FilesPerWorker
	}
	plan.Multiplier = MultiplierFor(plan.Workers)
	return plan
}

// WorkersFor leaves one core free on machines with more than eight.
func WorkersFor(cores int) int {
	if cores > 8 {
		cores--
	}
	return max(cores, 1)
}

// FilesPerWorkerFor scales the batch size with installed memory.
func FilesPerWorkerFor(totalBytes uint64) int {
	switch {
	case totalBytes >= 32*gib:
		return 50
	case totalBytes >= 16*gib:
		return 30
	default:
		return 15
	}
}

// MultiplierFor is how many batches each worker should see on average.
func MultiplierFor(workers int) int {
	switch {
	case workers >= 12:
		return 8
	case workers >= 8:
		return 6
	case workers >= 4:
		return 4
	default:
		return 3
	}
}

// BatchCount returns how many batches total files should be split into:
// enough for every worker to get several, enough that no batch exceeds
// FilesPerWorker, but never more batches than files.
func (p Plan) BatchCount(total int) int {
	if total <= 0 {
		return 0
	}
	fpw := max(p.FilesPerWorker, 1)
	bySize := (total + fpw - 1) / fpw
	byWorkers := max(p.Workers, 1) * max(p.Multiplier, 1)
	return min(total, max(byWorkers, bySize))
}
