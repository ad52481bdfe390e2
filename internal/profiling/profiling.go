package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Per-frame CPU timings of render stages, keyed by "stage.<name>" style labels.

var (
	mu     sync.Mutex
	totals = make(map[string]time.Duration)
	order  []string
)

// Track returns a stop function that adds the elapsed time to name.
// Usage: defer profiling.Track("stage.base")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		if _, seen := totals[name]; !seen {
			order = append(order, name)
		}
		totals[name] += d
		mu.Unlock()
	}
}

// ResetFrame clears the totals. Call at the start of each frame.
func ResetFrame() {
	mu.Lock()
	clear(totals)
	order = order[:0]
	mu.Unlock()
}

// Stage is one recorded label and its accumulated time.
type Stage struct {
	Name     string
	Duration time.Duration
}

// Stages returns the current frame's stages in first-recorded order.
func Stages() []Stage {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Stage, 0, len(order))
	for _, name := range order {
		out = append(out, Stage{Name: name, Duration: totals[name]})
	}
	return out
}

// TopN formats the n slowest stages, e.g. "stage.base:4.2ms, stage.bloom_blur:2.1ms".
func TopN(n int) string {
	stages := Stages()
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].Duration > stages[j].Duration })
	if n > len(stages) {
		n = len(stages)
	}
	parts := make([]string, 0, n)
	for _, s := range stages[:n] {
		parts = append(parts, s.Name+":"+formatMs(s.Duration))
	}
	return strings.Join(parts, ", ")
}

func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	return strconv.FormatFloat(ms, 'f', 1, 64) + "ms"
}
