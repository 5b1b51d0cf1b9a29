package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hordenav/components"
	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/sim"
	"github.com/pthm-cable/hordenav/spatial"
)

const (
	// repathTargetDrift invalidates a route when the target has moved
	// this far from where the route was computed.
	repathTargetDrift = 8.0
	// losRange caps the line-of-sight raycast; beyond it agents rely on
	// routing alone.
	losRange = 120.0
)

// updateAgents is the single-threaded gameplay pass. It is the only
// writer of health, death, score, and render authority. Per agent:
// adopt the kernel's position when the slot is batch-driven, resolve
// combat, follow the waypoint route with terrain stepping and gravity,
// pick this frame's render authority from viewer distance, and upload
// the slot's state to the table.
func (e *Engine) updateAgents(dt float32) {
	type deadAgent struct {
		entity ecs.Entity
		slot   int32
	}
	var dead []deadAgent

	query := e.filter.Query()
	for query.Next() {
		pos, vel, health, mob, combat, follow, slot := query.Get()
		id := int(slot.Index)

		if !health.Alive || health.Current <= 0 {
			health.Alive = false
			dead = append(dead, deadAgent{entity: query.Entity(), slot: slot.Index})
			continue
		}

		// The kernel owned this slot last frame: its output is the
		// agent's real position now, not a render-only offset, and the
		// kernel keeps steering until authority comes back.
		kernelDriven := e.table.Authority(id) == sim.AuthorityGPU
		if kernelDriven {
			pos.Vec3 = e.table.Position(id)
		}

		e.resolveCombat(pos.Vec3, combat, dt)
		if !kernelDriven {
			e.followRoute(pos, vel, mob, follow, dt)
		}
		e.applyTerrain(pos, vel, mob, dt)

		// Distant agents hand their drawn position to the batched
		// kernel; nearby ones stay individually simulated.
		authority := sim.AuthorityCPU
		if geom.GroundDistSq(pos.Vec3, e.viewer) > e.cfg.Derived.AuthorityRadSq {
			authority = sim.AuthorityGPU
		}

		e.table.SetPosition(id, pos.Vec3)
		e.table.SetVelocity(id, vel.Vec3)
		e.table.SetHealth(id, health.Current)
		e.table.SetRenderAuthority(id, authority)
	}

	// Removal after iteration; the query must finish before the world
	// is mutated.
	for _, d := range dead {
		e.collector.RecordDeath()
		e.table.Release(int(d.slot))
		e.bySlot[d.slot] = ecs.Entity{}
		e.mapper.Remove(d.entity)
	}
}

// resolveCombat attacks the tracked target when it is in range and the
// sight line is clear of walls and props.
func (e *Engine) resolveCombat(pos geom.Vec3, combat *components.Combat, dt float32) {
	if combat.CooldownLeft > 0 {
		combat.CooldownLeft -= dt
	}
	if combat.CooldownLeft > 0 {
		return
	}
	if geom.GroundDistSq(pos, e.target) > combat.Range*combat.Range {
		return
	}
	if !e.hasLineOfSight(pos, e.target) {
		return
	}
	e.score += combat.Damage
	combat.CooldownLeft = combat.Cooldown
	e.collector.RecordAttack()
}

// hasLineOfSight raycasts through the spatial index and checks the
// exact segment against each blocking candidate.
func (e *Engine) hasLineOfSight(from, to geom.Vec3) bool {
	delta := to.Sub(from)
	dist := delta.XZ().Len()
	if dist < 0.01 {
		return true
	}
	if dist > losRange {
		return false
	}

	e.losBlock = e.index.RaycastCandidatesInto(e.losBlock[:0], from, delta, dist)
	for _, entry := range e.losBlock {
		switch entry.Kind {
		case spatial.KindWall, spatial.KindProp:
			if geom.SegmentIntersectsXZ(from, to, entry.Box) {
				return false
			}
		case spatial.KindGround, spatial.KindStair, spatial.KindMarker:
			// never occludes
		}
	}
	return true
}

// followRoute walks the agent along its waypoint route, repathing when
// the timer expires, the route is exhausted, or the target drifted.
func (e *Engine) followRoute(pos *components.Position, vel *components.Velocity, mob *components.Mobility, follow *components.PathFollow, dt float32) {
	follow.RepathIn -= dt

	targetMoved := false
	if len(follow.Waypoints) > 0 {
		dx := e.target.X - follow.TargetX
		dz := e.target.Z - follow.TargetZ
		targetMoved = dx*dx+dz*dz > repathTargetDrift*repathTargetDrift
	}

	if follow.RepathIn <= 0 && (len(follow.Waypoints) == 0 || follow.Index >= len(follow.Waypoints) || targetMoved) {
		follow.Waypoints = e.paths.FindPath(pos.Vec3, e.target)
		follow.Index = 0
		follow.TargetX = e.target.X
		follow.TargetZ = e.target.Z
		follow.RepathIn = float32(e.cfg.Agents.RepathInterval)
	}

	if follow.Index >= len(follow.Waypoints) {
		vel.X, vel.Z = 0, 0
		return
	}

	wp := follow.Waypoints[follow.Index]
	arrive := float32(e.cfg.Agents.ArriveRadius)
	if geom.GroundDistSq(pos.Vec3, wp) < arrive*arrive {
		follow.Index++
		if follow.Index >= len(follow.Waypoints) {
			vel.X, vel.Z = 0, 0
			return
		}
		wp = follow.Waypoints[follow.Index]
	}

	dir := wp.Sub(pos.Vec3)
	dir.Y = 0
	d2 := dir.XZ().Normalized()

	next := pos.Vec3
	next.X += d2.X * mob.Speed * dt
	next.Z += d2.Y * mob.Speed * dt
	if e.grid.WalkableAt(next) {
		pos.X = next.X
		pos.Z = next.Z
		vel.X = d2.X * mob.Speed
		vel.Z = d2.Y * mob.Speed
	} else {
		// Blocked cell ahead: stop and force an early repath.
		vel.X, vel.Z = 0, 0
		follow.RepathIn = 0
	}
}

// applyTerrain snaps the agent onto terrain it can step up, and lets
// gravity pull it down toward terrain below.
func (e *Engine) applyTerrain(pos *components.Position, vel *components.Velocity, mob *components.Mobility, dt float32) {
	ground := e.level.HeightAt(pos.X, pos.Z)
	rise := ground - pos.Y

	switch {
	case rise > 0 && rise <= mob.StepHeight:
		// Small rises are absorbed without airtime.
		pos.Y = ground
		vel.Y = 0
	case rise > mob.StepHeight:
		// Too tall to step: stay at current height, pressed against it.
		vel.Y = 0
	default:
		vel.Y -= float32(e.cfg.Agents.Gravity) * dt
		pos.Y += vel.Y * dt
		if pos.Y < ground {
			pos.Y = ground
			vel.Y = 0
		}
	}

	if math.IsNaN(float64(pos.Y)) {
		pos.Y = ground
		vel.Y = 0
	}
}
