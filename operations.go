package marcher

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Union joins the shapes of one or more nodes. Is exact outside of the shapes.
// The color at a point is that of the nearest child, ties resolved in argument order.
func (bld *Builder) Union(nodes ...Node) Node {
	return bld.combine(KindUnion, "Union", nodes)
}

// Intersection keeps the volume common to all nodes. Does not produce an exact SDF.
// The color is always that of the first node.
func (bld *Builder) Intersection(nodes ...Node) Node {
	return bld.combine(KindIntersection, "Intersection", nodes)
}

func (bld *Builder) combine(kind Kind, op string, nodes []Node) Node {
	if len(nodes) == 0 {
		bld.badnode("need at least 1 argument to " + op)
	}
	children := make([]int32, len(nodes))
	for i, n := range nodes {
		children[i] = bld.adopt(n, op)
	}
	return bld.add(node{kind: kind, children: children})
}

// Translate moves n by (x,y,z).
func (bld *Builder) Translate(n Node, x, y, z float32) Node {
	t := ms3.Vec{X: x, Y: y, Z: z}
	if !finite(t) {
		bld.shapeErrorf("non-finite translation %v", t)
	}
	return bld.add(node{kind: KindTranslation, children: []int32{bld.adopt(n, "Translate")}, v: t})
}

// Rotate rotates n by radians around axis following the right hand rule.
func (bld *Builder) Rotate(n Node, axis Axis, radians float32) Node {
	if axis > AxisZ {
		bld.shapeErrorf("invalid rotation axis %d", axis)
		axis = AxisZ
	}
	if math32.IsNaN(radians) || math32.IsInf(radians, 0) {
		bld.shapeErrorf("non-finite rotation angle %v", radians)
	}
	// Points are mapped into the child's space by the inverse rotation.
	s, c := math32.Sincos(-radians)
	return bld.add(node{
		kind:     KindRotation,
		children: []int32{bld.adopt(n, "Rotate")},
		axis:     axis,
		f:        radians,
		sin:      s,
		cos:      c,
	})
}

// Scale scales n by factors (sx,sy,sz) around the origin. The resulting distance is
// multiplied by the smallest factor so that it never overestimates the true distance.
// Non-positive factors are an invalid argument and result in a degenerate field.
func (bld *Builder) Scale(n Node, sx, sy, sz float32) Node {
	if sx <= 0 || sy <= 0 || sz <= 0 {
		bld.shapeErrorf("zero or negative scale factor (%v,%v,%v)", sx, sy, sz)
	}
	return bld.add(node{
		kind:     KindScale,
		children: []int32{bld.adopt(n, "Scale")},
		v:        ms3.Vec{X: sx, Y: sy, Z: sz},
		f:        math32.Min(sx, math32.Min(sy, sz)),
	})
}

func finite(v ms3.Vec) bool {
	return !math32.IsNaN(v.X) && !math32.IsNaN(v.Y) && !math32.IsNaN(v.Z) &&
		!math32.IsInf(v.X, 0) && !math32.IsInf(v.Y, 0) && !math32.IsInf(v.Z, 0)
}
