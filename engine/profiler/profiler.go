package profiler

import (
	"log"
	"runtime"
	"time"
)

// Stats is a snapshot of the last completed profiling interval.
type Stats struct {
	FPS         float64
	FrameTime   time.Duration
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	SysMB       float64
	// Frames is the number of frames ticked since the profiler was created.
	Frames uint64
}

// Profiler tracks frame rate and memory statistics. Stats are sampled and optionally
// logged once per interval.
type Profiler struct {
	frameCount     int
	totalFrames    uint64
	lastTime       time.Time
	updateInterval time.Duration
	logging        bool
	now            func() time.Time

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	stats Stats
}

// NewProfiler creates a new Profiler. The interval defaults to 1 second and logging is on.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		logging:        true,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame. When the interval has elapsed it samples memory
// statistics, updates Stats and logs them.
//
// Returns:
//   - bool: true if a new sample was taken this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	p.totalFrames++
	p.stats.Frames = p.totalFrames

	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	p.stats = Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		FrameTime:   elapsed / time.Duration(p.frameCount),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(allocDelta) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		Frames:      p.totalFrames,
	}

	if p.logging {
		var lastPauseUs uint64
		if p.memStats.NumGC > 0 {
			// PauseNs is a circular buffer of the last 256 pauses
			lastPauseUs = p.memStats.PauseNs[(p.memStats.NumGC-1)%256] / 1000
		}
		log.Printf("[Profiler] FPS: %.2f | Frame: %s | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs) | Sys: %.2f MB",
			p.stats.FPS, p.stats.FrameTime.Round(time.Microsecond), p.stats.HeapMB, p.stats.AllocRateMB,
			p.stats.GCCount, lastPauseUs, p.stats.SysMB)
	}

	p.frameCount = 0
	p.lastTime = current
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Stats returns the most recent sample. Frames is always current.
//
// Returns:
//   - Stats: the latest statistics
func (p *Profiler) Stats() Stats {
	return p.stats
}
