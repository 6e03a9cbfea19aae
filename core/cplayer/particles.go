package cplayer

import (
	"math"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// ParticleManager shows particles that only the player itself can see.
type ParticleManager struct {
	p *CorePlayer
}

// Show shows particle at pos.
func (m *ParticleManager) Show(pos mgl64.Vec3, particle world.Particle) {
	if h, ok := m.p.active(); ok && particle != nil {
		h.ShowParticle(pos, particle)
	}
}

// Ring shows points particles on a horizontal circle around centre.
func (m *ParticleManager) Ring(centre mgl64.Vec3, radius float64, points int, particle world.Particle) {
	h, ok := m.p.active()
	if !ok || particle == nil || points <= 0 {
		return
	}
	for _, pos := range ringPoints(centre, radius, points) {
		h.ShowParticle(pos, particle)
	}
}

func ringPoints(centre mgl64.Vec3, radius float64, points int) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, points)
	step := 2 * math.Pi / float64(points)
	for i := range points {
		a := step * float64(i)
		out = append(out, centre.Add(mgl64.Vec3{math.Cos(a) * radius, 0, math.Sin(a) * radius}))
	}
	return out
}
