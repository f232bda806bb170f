package telemetry

import (
	"sort"
	"sync"
	"time"
)

// HealthReport is the /healthz payload.
type HealthReport struct {
	Status string       `json:"status"`
	Loops  []LoopHealth `json:"loops,omitempty"`
}

// LoopHealth describes one registered background loop.
type LoopHealth struct {
	Name     string    `json:"name"`
	LastBeat time.Time `json:"lastBeat"`
	Healthy  bool      `json:"healthy"`
}

// HealthTracker reports unhealthy when a registered loop misses its heartbeat.
type HealthTracker struct {
	mu    sync.Mutex
	loops map[string]*Heartbeat
	now   func() time.Time
}

// Heartbeat is a handle a loop uses to signal liveness.
type Heartbeat struct {
	tracker  *HealthTracker
	name     string
	interval time.Duration
	lastBeat time.Time
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		loops: make(map[string]*Heartbeat),
		now:   time.Now,
	}
}

// Register adds a loop expected to beat at least once per interval.
// The loop counts as healthy until its first deadline passes.
func (t *HealthTracker) Register(name string, interval time.Duration) *Heartbeat {
	t.mu.Lock()
	defer t.mu.Unlock()
	beat := &Heartbeat{
		tracker:  t,
		name:     name,
		interval: interval,
		lastBeat: t.now(),
	}
	t.loops[name] = beat
	return beat
}

func (h *Heartbeat) Beat() {
	if h == nil || h.tracker == nil {
		return
	}
	h.tracker.mu.Lock()
	h.lastBeat = h.tracker.now()
	h.tracker.mu.Unlock()
}

func (t *HealthTracker) Report() HealthReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	report := HealthReport{Status: "ok"}
	for _, beat := range t.loops {
		healthy := beat.interval <= 0 || now.Sub(beat.lastBeat) <= beat.interval
		if !healthy {
			report.Status = "degraded"
		}
		report.Loops = append(report.Loops, LoopHealth{
			Name:     beat.name,
			LastBeat: beat.lastBeat,
			Healthy:  healthy,
		})
	}
	sort.Slice(report.Loops, func(i, j int) bool {
		return report.Loops[i].Name < report.Loops[j].Name
	})
	return report
}
