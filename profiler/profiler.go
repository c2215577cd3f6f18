// Package profiler - stage timings and counters for dataset loading.
package profiler

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"
)

// StageTracker tracks timing statistics for one named load stage.
type StageTracker struct {
	Name      string
	Count     int
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// Average returns the mean stage duration.
func (s StageTracker) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Count)
}

// LoadProfiler records how long each load stage took and how many items it
// produced. It is safe for concurrent use.
type LoadProfiler struct {
	mu        sync.RWMutex
	startTime time.Time
	order     []string
	stages    map[string]*StageTracker
	counters  map[string]int
}

// NewLoadProfiler returns an empty profiler whose clock starts now.
func NewLoadProfiler() *LoadProfiler {
	return &LoadProfiler{
		startTime: time.Now(),
		stages:    make(map[string]*StageTracker),
		counters:  make(map[string]int),
	}
}

// StartStage begins timing a stage.
//
// Arguments:
// - name: The name of the stage to track.
//
// Returns:
// - A function to call when the stage completes.
//
// @example
// done := p.StartStage("parse")
// records := parse(anns)
// done()
func (p *LoadProfiler) StartStage(name string) func() {
	start := time.Now()
	return func() {
		p.RecordStage(name, time.Since(start))
	}
}

// RecordStage adds one completed run of a stage.
func (p *LoadProfiler) RecordStage(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, ok := p.stages[name]
	if !ok {
		tracker = &StageTracker{Name: name, MinTime: d, MaxTime: d}
		p.stages[name] = tracker
		p.order = append(p.order, name)
	}

	tracker.Count++
	tracker.TotalTime += d
	if d < tracker.MinTime {
		tracker.MinTime = d
	}
	if d > tracker.MaxTime {
		tracker.MaxTime = d
	}
}

// SetCount stores the latest value of a counter, e.g. the number of records a
// stage kept.
func (p *LoadProfiler) SetCount(name string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counters[name] = n
}

// Count returns a counter value and whether it was set.
func (p *LoadProfiler) Count(name string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n, ok := p.counters[name]
	return n, ok
}

// Stages returns a snapshot of every stage in first-recorded order.
func (p *LoadProfiler) Stages() []StageTracker {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]StageTracker, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, *p.stages[name])
	}
	return out
}

// Report writes stage timings, counters and heap usage to w.
func (p *LoadProfiler) Report(w io.Writer) {
	stages := p.Stages()

	p.mu.RLock()
	names := make([]string, 0, len(p.counters))
	for name := range p.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	counters := make([]string, 0, len(names))
	for _, name := range names {
		counters = append(counters, fmt.Sprintf("  %s: %d\n", name, p.counters[name]))
	}
	elapsed := time.Since(p.startTime)
	p.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Fprintf(w, "LOAD PROFILE - %v since start\n", elapsed.Truncate(time.Millisecond))

	if len(stages) > 0 {
		fmt.Fprintf(w, "\nSTAGE TIMINGS:\n")
		for _, s := range stages {
			fmt.Fprintf(w, "  %s: avg=%v, min=%v, max=%v, count=%d\n",
				s.Name,
				s.Average().Truncate(time.Microsecond),
				s.MinTime.Truncate(time.Microsecond),
				s.MaxTime.Truncate(time.Microsecond),
				s.Count)
		}
	}

	if len(counters) > 0 {
		fmt.Fprintf(w, "\nCOUNTERS:\n")
		for _, line := range counters {
			fmt.Fprint(w, line)
		}
	}

	fmt.Fprintf(w, "\nMEMORY USAGE:\n")
	fmt.Fprintf(w, "  Heap Alloc: %s\n", formatBytes(mem.HeapAlloc))
	fmt.Fprintf(w, "  Heap Objects: %d\n", mem.HeapObjects)
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
