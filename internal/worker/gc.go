package worker

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/agbru/peuler/internal/logging"
)

// memoryLimitFactor bounds heap growth while collection is suspended, as a
// multiple of the memory obtained from the OS when the pause began.
const memoryLimitFactor = 3

// QuietGCEngine suspends the garbage collector around each Benchmark call
// so collection pauses are not timed as part of the solve. Solve is passed
// through unchanged.
type QuietGCEngine struct {
	Engine
	Logger logging.Logger
}

var gcPause struct {
	mu         sync.Mutex
	depth      int
	percent    int
	limit      int64
	startStats runtime.MemStats
}

// Benchmark times the wrapped engine's solve with collection suspended.
func (e QuietGCEngine) Benchmark(id int) (string, time.Duration, error) {
	suspendGC()
	defer e.resumeGC(id)
	return e.Engine.Benchmark(id)
}

// suspendGC turns collection off. Nested calls share one pause; a soft
// memory limit stays in force as a safety net.
func suspendGC() {
	gcPause.mu.Lock()
	defer gcPause.mu.Unlock()
	gcPause.depth++
	if gcPause.depth > 1 {
		return
	}
	runtime.ReadMemStats(&gcPause.startStats)
	gcPause.percent = debug.SetGCPercent(-1)
	limit := int64(gcPause.startStats.Sys) * memoryLimitFactor
	if limit <= 0 {
		limit = -1 // leave unchanged; SetMemoryLimit ignores negative input
	}
	gcPause.limit = debug.SetMemoryLimit(limit)
}

func (e QuietGCEngine) resumeGC(id int) {
	gcPause.mu.Lock()
	defer gcPause.mu.Unlock()
	gcPause.depth--
	if gcPause.depth > 0 {
		return
	}
	debug.SetGCPercent(gcPause.percent)
	debug.SetMemoryLimit(gcPause.limit)

	var end runtime.MemStats
	runtime.ReadMemStats(&end)
	if e.Logger != nil {
		e.Logger.Debug("gc resumed",
			logging.Int("problem", id),
			logging.Uint64("allocated_bytes", end.TotalAlloc-gcPause.startStats.TotalAlloc),
			logging.Uint64("heap_alloc_bytes", end.HeapAlloc),
		)
	}
	runtime.GC()
}
