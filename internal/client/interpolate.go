// Package client implements the client-side mirror spec.md section 4.6
// names: a render-time interpolation system over each remote entity's
// StateHistory ring, with bounded extrapolation when the network falls
// behind. The teacher has no client; this is new code grounded
// directly on spec.md's algorithm description.
package client

import (
	"math"

	"github.com/ironwing/arena-server/internal/ecs"
)

// InterpolationDelay is how far behind the newest sample the render
// time sits, trading latency for smoothness.
const InterpolationDelay float32 = 0.05 // 50ms, per spec.md section 4.6

// Position is a rendered (x, y) for one remote entity.
type Position struct {
	X, Y float32
}

// Render computes the entity's render position at serverNow (seconds,
// the same clock StateHistory samples are stamped against). It finds
// the two samples bracketing renderTime = serverNow - InterpolationDelay
// and linearly interpolates between them; if renderTime is newer than
// every sample, it extrapolates from the last two samples up to a cap
// that shrinks as the two samples move further apart.
func Render(h *ecs.StateHistory, serverNow float32) (Position, bool) {
	samples := h.Snapshot()
	if len(samples) == 0 {
		return Position{}, false
	}
	if len(samples) == 1 {
		return Position{X: samples[0].X, Y: samples[0].Y}, true
	}

	renderTime := serverNow - InterpolationDelay

	if renderTime <= samples[0].T {
		return Position{X: samples[0].X, Y: samples[0].Y}, true
	}

	for i := 0; i < len(samples)-1; i++ {
		a, b := samples[i], samples[i+1]
		if renderTime >= a.T && renderTime <= b.T {
			return lerpSample(a, b, renderTime), true
		}
	}

	// renderTime is past the newest sample: extrapolate from the last
	// two, capped by how far apart they were.
	last := samples[len(samples)-1]
	prev := samples[len(samples)-2]
	return extrapolate(prev, last, renderTime), true
}

func lerpSample(a, b ecs.HistorySample, renderTime float32) Position {
	span := b.T - a.T
	if span <= 0 {
		return Position{X: b.X, Y: b.Y}
	}
	alpha := (renderTime - a.T) / span
	return Position{
		X: a.X + (b.X-a.X)*alpha,
		Y: a.Y + (b.Y-a.Y)*alpha,
	}
}

func extrapolate(prev, last ecs.HistorySample, renderTime float32) Position {
	span := last.T - prev.T
	if span <= 0 {
		return Position{X: last.X, Y: last.Y}
	}
	alpha := (renderTime - prev.T) / span
	if cap := extrapolationCap(prev, last); alpha > cap {
		alpha = cap
	}
	return Position{
		X: prev.X + (last.X-prev.X)*alpha,
		Y: prev.Y + (last.Y-prev.Y)*alpha,
	}
}

// extrapolationCap returns the alpha ceiling for extrapolating beyond
// the last sample, shrinking as the last two samples move further
// apart: a fast-moving entity is riskier to project forward, per
// spec.md section 4.6's table.
func extrapolationCap(prev, last ecs.HistorySample) float32 {
	dx := float64(last.X - prev.X)
	dy := float64(last.Y - prev.Y)
	dist := math.Sqrt(dx*dx + dy*dy)

	switch {
	case dist >= 20:
		return 0.95
	case dist >= 10:
		return 1.0
	case dist >= 5:
		return 1.05
	default:
		return 1.15
	}
}
