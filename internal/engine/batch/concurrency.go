// internal/engine/batch/concurrency.go
package batch

import (
	"runtime"
)

// Rough resident size of one headless Chrome tab on a listing-heavy site.
const perSessionMB = 200

// OptimalPoolSize suggests how many browser sessions to run, from CPU count and
// the memory the runtime reports as obtainable, capped at max.
func OptimalPoolSize(max int) int {
	optimal := runtime.NumCPU()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	availMB := (m.Sys - m.Alloc) / 1024 / 1024
	if byMemory := int(availMB / perSessionMB); byMemory > 0 && byMemory < optimal {
		optimal = byMemory
	}

	if optimal < 1 {
		optimal = 1
	}
	if max > 0 && optimal > max {
		optimal = max
	}
	return optimal
}
