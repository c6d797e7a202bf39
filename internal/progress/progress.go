package progress

import (
	"sync"
	"time"
)

const bytesPerMB = 1024 * 1024

// Phase names the part of a sync an Event belongs to. Percent is
// monotonic within a phase and restarts at 0 when the next phase begins.
type Phase string

const (
	PhaseInventory Phase = "inventory"
	PhaseDownload  Phase = "download"
)

// Event is a single progress notification emitted during a fetch
type Event struct {
	Phase          Phase
	Percent        int     // 0 to 100
	Label          string  // entry being processed
	ThroughputMBps float64 // cumulative average since the phase started
}

// Func receives progress events
type Func func(Event)

// Meter turns raw counters into Events. Percent never decreases and
// throughput is the cumulative average (bytes so far / elapsed seconds).
type Meter struct {
	mu    sync.Mutex
	phase Phase
	fn    Func
	start time.Time
	now   func() time.Time
	last  int
}

// NewMeter creates a meter that forwards events of phase to fn. A nil fn
// is allowed.
func NewMeter(phase Phase, fn Func) *Meter {
	return &Meter{
		phase: phase,
		fn:    fn,
		start: time.Now(),
		now:   time.Now,
	}
}

// Report emits an event for done out of total units with bytes transferred so far.
// A non-positive total leaves the percentage where it was.
func (m *Meter) Report(done, total, bytes int64, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	percent := m.last
	if total > 0 {
		percent = int(done * 100 / total)
	}
	m.emit(percent, bytes, label)
}

// Finish emits the terminal 100% event
func (m *Meter) Finish(bytes int64, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emit(100, bytes, label)
}

// Percent returns the last emitted percentage
func (m *Meter) Percent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Meter) emit(percent int, bytes int64, label string) {
	if percent > 100 {
		percent = 100
	}
	if percent < m.last {
		percent = m.last
	}
	m.last = percent

	if m.fn == nil {
		return
	}
	m.fn(Event{
		Phase:          m.phase,
		Percent:        percent,
		Label:          label,
		ThroughputMBps: throughput(bytes, m.now().Sub(m.start)),
	})
}

func throughput(bytes int64, elapsed time.Duration) float64 {
	if bytes <= 0 || elapsed <= 0 {
		return 0
	}
	return float64(bytes) / elapsed.Seconds() / bytesPerMB
}
