// Package raymarch implements batched sphere tracing of distance field scenes.
package raymarch

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/marcher/lanes"
)

// World is a scene that can be sphere traced.
// Implementations must never overestimate the distance to the nearest surface.
type World interface {
	// DistanceEstimate stores the signed distance at every lane of pos in dst.
	DistanceEstimate(dst *lanes.Float, pos *lanes.Vec)
	// Color stores the color at every lane of pos in dst. Components are in [0,1].
	Color(dst *lanes.Vec, pos *lanes.Vec)
}

// Config configures a [Marcher].
type Config struct {
	// MaxSteps is the iteration budget of a march. Rays that do not converge
	// within the budget are resolved against their last sample.
	MaxSteps int
	// Epsilon is the surface proximity threshold under which a converging ray is a hit.
	Epsilon float32
}

// DefaultConfig returns the configuration used by the interactive renderer.
func DefaultConfig() Config {
	return Config{MaxSteps: 300, Epsilon: 1e-2}
}

// Validate returns an error if the configuration can not be used to march rays.
func (cfg Config) Validate() error {
	if cfg.MaxSteps < 1 {
		return fmt.Errorf("max steps must be positive, got %d", cfg.MaxSteps)
	} else if !(cfg.Epsilon > 0) || math32.IsInf(cfg.Epsilon, 1) {
		return errors.New("epsilon must be positive and finite")
	}
	return nil
}

// Stats accumulates work done by a [Marcher].
type Stats struct {
	// Steps is the number of march iterations.
	Steps int
	// Hits is the number of lanes that converged to a surface.
	Hits int
	// Forced is the number of lanes resolved after exhausting the step budget.
	Forced int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Steps += other.Steps
	s.Hits += other.Hits
	s.Forced += other.Forced
}

// Marcher sphere traces batches of rays. A Marcher holds no mutable state
// and may be shared between goroutines.
type Marcher struct {
	cfg Config
}

// NewMarcher returns a Marcher configured by cfg.
func NewMarcher(cfg Config) (*Marcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Marcher{cfg: cfg}, nil
}

// Config returns the Marcher's configuration.
func (m *Marcher) Config() Config { return m.cfg }

// March traces a batch of rays starting at origins towards dirs through w
// and returns the shaded color of every lane.
// dirs need not be normalized but must be non-zero; zero-length directions result in NaN propagation.
//
// A lane hits when its distance estimate is under epsilon and smaller than the previous
// step's estimate, so rays stepping away from a grazed surface keep marching. The hit color is
// the surface color darkened by how little the distance shrank on the final step.
func (m *Marcher) March(w World, origins, dirs lanes.Vec) (colors lanes.Vec, stats Stats) {
	dirs = lanes.Normalize(dirs)
	eps := lanes.Splat(m.cfg.Epsilon)
	pos := origins
	var (
		last lanes.Float // Previous distance estimate, zero before the first step.
		d    lanes.Float
		hit  lanes.Mask
	)
	for stats.Steps < m.cfg.MaxSteps {
		w.DistanceEstimate(&d, &pos)
		stats.Steps++
		newHits := d.LessEq(eps) & d.Less(last) &^ hit
		if newHits.Any() {
			colors = lanes.Select(newHits, shade(w, &pos, d, last), colors)
			hit |= newHits
			stats.Hits += newHits.Count()
			if hit.All() {
				return colors, stats
			}
		}
		// Hit lanes stay frozen at their surface sample.
		var step lanes.Float
		for i := range step {
			if !hit.Has(i) {
				step[i] = d[i]
			}
		}
		pos = lanes.Add(pos, lanes.Scale(step, dirs))
		last = d
	}
	// Budget exhausted: resolve remaining lanes against their last sample.
	w.DistanceEstimate(&d, &pos)
	forced := lanes.MaskAll &^ hit
	colors = lanes.Select(forced, shade(w, &pos, d, last), colors)
	stats.Forced = forced.Count()
	return colors, stats
}

// shade darkens the color at pos by the ratio of the current distance
// estimate to the last. A ratio that is not a number resolves to black.
func shade(w World, pos *lanes.Vec, d, last lanes.Float) lanes.Vec {
	var c lanes.Vec
	w.Color(&c, pos)
	var k lanes.Float
	for i := range k {
		frac := d[i] / last[i]
		if math32.IsNaN(frac) {
			frac = 1
		}
		k[i] = 1 - ms1.Clamp(frac, 0, 1)
	}
	return lanes.Scale(k, c)
}
