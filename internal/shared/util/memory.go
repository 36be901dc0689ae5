package util

import (
	"runtime"
)

// MemoryUsage is the subset of runtime memory statistics reported by the
// health endpoint.
type MemoryUsage struct {
	HeapMB   uint64
	SysMB    uint64
	GCCycles uint32
}

func ReadMemoryUsage() MemoryUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryUsage{
		HeapMB:   m.Alloc / 1024 / 1024,
		SysMB:    m.Sys / 1024 / 1024,
		GCCycles: m.NumGC,
	}
}
