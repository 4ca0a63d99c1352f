// Package system runs per-tick systems in a fixed phase order.
package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhasePreUpdate  Phase = iota // 0: input, time, external events
	PhaseUpdate                  // 1: game logic, integration, collision
	PhasePostUpdate              // 2: hierarchy propagation, cleanup
	PhasePreRender               // 3: culling, draw list building
	PhaseRender                  // 4: draw submission
	PhasePostRender              // 5: frame statistics
)

var phaseNames = [...]string{
	PhasePreUpdate:  "pre_update",
	PhaseUpdate:     "update",
	PhasePostUpdate: "post_update",
	PhasePreRender:  "pre_render",
	PhaseRender:     "render",
	PhasePostRender: "post_render",
}

// String returns the snake_case phase name.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every per-tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

type funcSystem struct {
	phase Phase
	fn    func(time.Duration)
}

func (s funcSystem) Phase() Phase            { return s.phase }
func (s funcSystem) Update(dt time.Duration) { s.fn(dt) }

// Func wraps fn as a System running in phase.
func Func(phase Phase, fn func(dt time.Duration)) System {
	return funcSystem{phase: phase, fn: fn}
}
