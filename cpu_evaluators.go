package marcher

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/marcher/lanes"
)

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and result buffer length mismatch")
)

var (
	white = lanes.Broadcast(ms3.Vec{X: 1, Y: 1, Z: 1})
	ones3 = lanes.Broadcast(ms3.Vec{X: 1, Y: 1, Z: 1})
	one   = lanes.Splat(1)
)

// DistanceEstimate evaluates the scene's signed distance at every lane of pos and stores it in dst.
// The estimate never exceeds the true distance to the nearest surface.
func (s *Scene) DistanceEstimate(dst *lanes.Float, pos *lanes.Vec) {
	*dst = s.distance(s.root, pos)
}

// Color evaluates the scene's color at every lane of pos and stores it in dst.
// Components are in [0,1]. Geometry with no color assigned is white.
func (s *Scene) Color(dst *lanes.Vec, pos *lanes.Vec) {
	*dst = s.color(s.root, pos)
}

func (s *Scene) distance(idx int32, p *lanes.Vec) lanes.Float {
	n := &s.nodes[idx]
	switch n.kind {
	case KindSphere:
		return lanes.Norm(*p).Sub(one)

	case KindCube:
		q := lanes.Sub(lanes.AbsElem(*p), ones3)
		outside := lanes.Norm(lanes.MaxElem(q, lanes.Vec{}))
		inside := q.X.Max(q.Y).Max(q.Z).Min(lanes.Float{})
		return outside.Add(inside)

	case KindPlane:
		return p.Y.Sub(lanes.Splat(n.f)).Abs()

	case KindUnion:
		d := s.distance(n.children[0], p)
		for _, c := range n.children[1:] {
			d = d.Min(s.distance(c, p))
		}
		return d

	case KindIntersection:
		d := s.distance(n.children[0], p)
		for _, c := range n.children[1:] {
			d = d.Max(s.distance(c, p))
		}
		return d

	case KindTranslation, KindRotation, KindScale:
		q := n.toLocal(p)
		d := s.distance(n.children[0], &q)
		if n.kind == KindScale {
			d = d.Mul(lanes.Splat(n.f))
		}
		return d

	case KindCheckers, KindColoring:
		return s.distance(n.children[0], p)
	}
	panic("undefined node kind " + n.kind.String())
}

func (s *Scene) color(idx int32, p *lanes.Vec) lanes.Vec {
	n := &s.nodes[idx]
	switch n.kind {
	case KindSphere, KindCube, KindPlane:
		return white

	case KindUnion:
		if len(n.children) == 1 {
			return s.color(n.children[0], p)
		}
		// Find the nearest child for every lane, first child wins ties.
		var nearest [lanes.Width]uint16
		best := s.distance(n.children[0], p)
		for i, c := range n.children[1:] {
			d := s.distance(c, p)
			closer := d.Less(best)
			if !closer.Any() {
				continue
			}
			best = lanes.SelectFloat(closer, d, best)
			for l := range nearest {
				if closer.Has(l) {
					nearest[l] = uint16(i + 1)
				}
			}
		}
		var col lanes.Vec
		for i, c := range n.children {
			var owns lanes.Mask
			for l, ci := range nearest {
				if int(ci) == i {
					owns |= 1 << l
				}
			}
			if owns.Any() {
				col = lanes.Select(owns, s.color(c, p), col)
			}
		}
		return col

	case KindIntersection:
		return s.color(n.children[0], p)

	case KindTranslation, KindRotation, KindScale:
		q := n.toLocal(p)
		return s.color(n.children[0], &q)

	case KindColoring:
		return lanes.Broadcast(n.v)

	case KindCheckers:
		var even lanes.Mask
		for l := 0; l < lanes.Width; l++ {
			sum := math32.Round(math32.Abs(p.X[l])) + math32.Round(math32.Abs(p.Y[l])) + math32.Round(math32.Abs(p.Z[l]))
			if int64(sum)%2 == 0 {
				even |= 1 << l
			}
		}
		return lanes.Select(even, lanes.Broadcast(n.v), lanes.Broadcast(n.v2))
	}
	panic("undefined node kind " + n.kind.String())
}

// toLocal maps points into the child space of a transform node.
func (n *node) toLocal(p *lanes.Vec) lanes.Vec {
	switch n.kind {
	case KindTranslation:
		return lanes.Sub(*p, lanes.Broadcast(n.v))
	case KindScale:
		return lanes.DivElem(*p, lanes.Broadcast(n.v))
	case KindRotation:
		if n.sin == 0 && n.cos == 1 {
			return *p
		}
		return rotate(p, n.axis, n.sin, n.cos)
	}
	return *p
}

func rotate(p *lanes.Vec, axis Axis, s, c float32) lanes.Vec {
	q := *p
	for l := 0; l < lanes.Width; l++ {
		x, y, z := p.X[l], p.Y[l], p.Z[l]
		switch axis {
		case AxisX:
			q.Y[l] = c*y - s*z
			q.Z[l] = s*y + c*z
		case AxisY:
			q.X[l] = c*x + s*z
			q.Z[l] = -s*x + c*z
		case AxisZ:
			q.X[l] = c*x - s*y
			q.Y[l] = s*x + c*y
		}
	}
	return q
}

// Evaluate evaluates the scene's signed distance over pos positions and stores the
// results in dist. dist and pos must be of same length. userData is unused.
func (s *Scene) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	var p lanes.Vec
	for start := 0; start < len(pos); start += lanes.Width {
		n := fillBatch(&p, pos[start:])
		d := s.distance(s.root, &p)
		copy(dist[start:start+n], d[:n])
	}
	return nil
}

// EvaluateColor evaluates the scene's color over pos positions and stores the
// results in colors. colors and pos must be of same length.
func (s *Scene) EvaluateColor(pos []ms3.Vec, colors []ms3.Vec) error {
	if len(pos) != len(colors) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	var p lanes.Vec
	for start := 0; start < len(pos); start += lanes.Width {
		n := fillBatch(&p, pos[start:])
		c := s.color(s.root, &p)
		for i := 0; i < n; i++ {
			colors[start+i] = c.Lane(i)
		}
	}
	return nil
}

// fillBatch loads up to lanes.Width positions into dst, padding the remaining
// lanes with the last position. It returns the number of positions loaded.
func fillBatch(dst *lanes.Vec, pos []ms3.Vec) int {
	n := min(len(pos), lanes.Width)
	for i := 0; i < lanes.Width; i++ {
		dst.SetLane(i, pos[min(i, n-1)])
	}
	return n
}
