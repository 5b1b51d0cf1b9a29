package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Collector accumulates engine counters between telemetry windows. All
// fields are per-window deltas; FieldRebuilds is assigned by the engine
// from the field's cumulative counter before each window is cut.
type Collector struct {
	Attacks       uint64
	Deaths        uint64
	Spawns        uint64
	SpawnsRefused uint64
	FieldRebuilds uint64
}

// RecordAttack counts one landed attack.
func (c *Collector) RecordAttack() { c.Attacks++ }

// RecordDeath counts one agent death.
func (c *Collector) RecordDeath() { c.Deaths++ }

// RecordSpawn counts one successful spawn.
func (c *Collector) RecordSpawn() { c.Spawns++ }

// RecordSpawnRefused counts one spawn refused at capacity.
func (c *Collector) RecordSpawnRefused() { c.SpawnsRefused++ }

// WindowStats is one telemetry window row.
type WindowStats struct {
	Frame         uint64  `csv:"frame"`
	Agents        int     `csv:"agents"`
	GPUAgents     int     `csv:"gpu_agents"`
	Attacks       uint64  `csv:"attacks"`
	Deaths        uint64  `csv:"deaths"`
	Spawns        uint64  `csv:"spawns"`
	SpawnsRefused uint64  `csv:"spawns_refused"`
	FieldRebuilds uint64  `csv:"field_rebuilds"`
	FrameMeanUS   float64 `csv:"frame_mean_us"`
	FrameStdUS    float64 `csv:"frame_std_us"`
	FrameP95US    float64 `csv:"frame_p95_us"`
}

// Window builds a stats row from the counters and the perf window's
// frame durations, then resets the counters.
func (c *Collector) Window(frame uint64, agents, gpuAgents int, durationsUS []float64) WindowStats {
	w := WindowStats{
		Frame:         frame,
		Agents:        agents,
		GPUAgents:     gpuAgents,
		Attacks:       c.Attacks,
		Deaths:        c.Deaths,
		Spawns:        c.Spawns,
		SpawnsRefused: c.SpawnsRefused,
		FieldRebuilds: c.FieldRebuilds,
	}
	if len(durationsUS) > 0 {
		w.FrameMeanUS = stat.Mean(durationsUS, nil)
		w.FrameStdUS = stat.StdDev(durationsUS, nil)
		sorted := append([]float64(nil), durationsUS...)
		sort.Float64s(sorted)
		w.FrameP95US = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	}
	*c = Collector{}
	return w
}
