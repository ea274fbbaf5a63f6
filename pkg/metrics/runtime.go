package metrics

import (
	"runtime"
	"time"
)

// CollectRuntime samples Go runtime stats into gauges named
// <prefix>_go_goroutines, <prefix>_go_heap_alloc_bytes, <prefix>_go_sys_bytes
// and <prefix>_go_gc_total at the given interval. Runs until process exit.
func (r *Registry) CollectRuntime(prefix string, interval time.Duration) {
	goroutines := r.Gauge(prefix+"_go_goroutines", "Number of live goroutines")
	heapAlloc := r.Gauge(prefix+"_go_heap_alloc_bytes", "Bytes of allocated heap objects")
	sysBytes := r.Gauge(prefix+"_go_sys_bytes", "Bytes obtained from the OS")
	gcTotal := r.Gauge(prefix+"_go_gc_total", "Completed GC cycles")

	sample := func() {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		goroutines.Set(int64(runtime.NumGoroutine()))
		heapAlloc.Set(int64(ms.HeapAlloc))
		sysBytes.Set(int64(ms.Sys))
		gcTotal.Set(int64(ms.NumGC))
	}
	sample()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			sample()
		}
	}()
}
