package progress

import (
	"testing"
	"time"
)

func TestMeter_PercentMonotonic(t *testing.T) {
	var events []Event
	m := NewMeter(PhaseDownload, func(e Event) { events = append(events, e) })

	const total = 1000
	for _, done := range []int64{0, 100, 350, 300, 999, 1000} {
		m.Report(done, total, done, "chunk")
	}
	m.Finish(total, "done")

	last := -1
	for i, e := range events {
		if e.Percent < last {
			t.Errorf("event %d: percent %d decreased from %d", i, e.Percent, last)
		}
		if e.Percent < 0 || e.Percent > 100 {
			t.Errorf("event %d: percent %d out of range", i, e.Percent)
		}
		last = e.Percent
	}
	if got := events[len(events)-1].Percent; got != 100 {
		t.Errorf("final percent = %d, want 100", got)
	}
}

func TestMeter_StampsPhase(t *testing.T) {
	var events []Event
	record := func(e Event) { events = append(events, e) }

	inv := NewMeter(PhaseInventory, record)
	inv.Report(1, 2, 0, "Anime")
	inv.Finish(0, "Classic")

	dl := NewMeter(PhaseDownload, record)
	dl.Report(0, 4, 0, "Anime/Neko/pointer.cur")

	want := []Phase{PhaseInventory, PhaseInventory, PhaseDownload}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Phase != want[i] {
			t.Errorf("event %d phase = %q, want %q", i, e.Phase, want[i])
		}
	}
	if events[2].Percent != 0 {
		t.Errorf("new phase starts at %d, want 0", events[2].Percent)
	}
}

func TestMeter_UnknownTotalKeepsPercent(t *testing.T) {
	var events []Event
	m := NewMeter(PhaseDownload, func(e Event) { events = append(events, e) })

	m.Report(10, 100, 10, "a")
	m.Report(500, -1, 500, "b")

	if events[1].Percent != 10 {
		t.Errorf("percent with unknown total = %d, want 10", events[1].Percent)
	}
}

func TestMeter_ClampsOverflow(t *testing.T) {
	m := NewMeter(PhaseDownload, nil)
	m.Report(150, 100, 0, "over")
	if m.Percent() != 100 {
		t.Errorf("Percent() = %d, want 100", m.Percent())
	}
}

func TestMeter_CumulativeThroughput(t *testing.T) {
	var got Event
	m := NewMeter(PhaseDownload, func(e Event) { got = e })

	start := time.Now()
	m.start = start
	m.now = func() time.Time { return start.Add(2 * time.Second) }

	m.Report(1, 2, 4*bytesPerMB, "x")

	if got.ThroughputMBps != 2 {
		t.Errorf("throughput = %v, want 2", got.ThroughputMBps)
	}
}

func TestThroughput_ZeroElapsed(t *testing.T) {
	if v := throughput(1024, 0); v != 0 {
		t.Errorf("throughput with zero elapsed = %v, want 0", v)
	}
	if v := throughput(0, time.Second); v != 0 {
		t.Errorf("throughput with zero bytes = %v, want 0", v)
	}
}
