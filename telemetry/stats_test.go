package telemetry

import (
	"math"
	"testing"
)

func TestWindowAggregates(t *testing.T) {
	c := &Collector{}
	c.RecordAttack()
	c.RecordAttack()
	c.RecordDeath()
	c.RecordSpawn()
	c.RecordSpawnRefused()
	c.FieldRebuilds = 7

	durations := []float64{100, 200, 300, 400}
	w := c.Window(120, 50, 30, durations)

	if w.Frame != 120 || w.Agents != 50 || w.GPUAgents != 30 {
		t.Errorf("identity fields wrong: %+v", w)
	}
	if w.Attacks != 2 || w.Deaths != 1 || w.Spawns != 1 || w.SpawnsRefused != 1 {
		t.Errorf("counters wrong: %+v", w)
	}
	if w.FieldRebuilds != 7 {
		t.Errorf("field rebuilds = %d", w.FieldRebuilds)
	}
	if math.Abs(w.FrameMeanUS-250) > 0.001 {
		t.Errorf("mean = %f, want 250", w.FrameMeanUS)
	}
	if w.FrameP95US < w.FrameMeanUS {
		t.Errorf("p95 %f below mean %f", w.FrameP95US, w.FrameMeanUS)
	}
}

func TestWindowResetsCounters(t *testing.T) {
	c := &Collector{}
	c.RecordAttack()
	c.FieldRebuilds = 3

	w := c.Window(1, 0, 0, nil)

	if w.FieldRebuilds != 3 {
		t.Errorf("window row carried %d rebuilds, want 3", w.FieldRebuilds)
	}
	// Every counter is a per-window delta; the next window starts clean.
	if c.Attacks != 0 {
		t.Error("attacks not reset between windows")
	}
	if c.FieldRebuilds != 0 {
		t.Error("field rebuilds not reset between windows")
	}
}

func TestWindowEmptyDurations(t *testing.T) {
	c := &Collector{}
	w := c.Window(1, 0, 0, nil)
	if w.FrameMeanUS != 0 || w.FrameP95US != 0 {
		t.Errorf("empty durations should yield zero timing stats: %+v", w)
	}
}
