// Package components defines the ECS components of the full-fidelity
// gameplay layer. The batched kernel representation lives in the sim
// table; these components are the CPU-authoritative side.
package components

import "github.com/pthm-cable/hordenav/geom"

// Position is the agent's authoritative world position.
type Position struct {
	geom.Vec3
}

// Velocity is the agent's world velocity. Y carries the gravity term.
type Velocity struct {
	geom.Vec3
}

// Health holds gameplay health. Only the gameplay pass writes it.
type Health struct {
	Current float32
	Max     float32
	Alive   bool
}

// Mobility holds the agent's movement tuning.
type Mobility struct {
	Speed      float32 // ground speed, world units/s
	StepHeight float32 // max terrain rise absorbed without jumping
}

// Combat holds attack timing against the tracked target.
type Combat struct {
	Range        float32
	Damage       float32
	Cooldown     float32 // seconds between attacks
	CooldownLeft float32
}

// PathFollow is the agent's current waypoint route from the path
// graph, independent of the flow field.
type PathFollow struct {
	Waypoints []geom.Vec3
	Index     int
	// Target position when the route was computed; a target that moves
	// too far invalidates the route.
	TargetX, TargetZ float32
	RepathIn         float32 // seconds until the next allowed repath
}

// AgentSlot binds the entity to its slot in the shared simulation
// table.
type AgentSlot struct {
	Index int32
}
