package marcher

import (
	"github.com/soypat/geometry/ms3"
)

// Color overrides the color of n with c. Components of c must be in [0,1].
// The distance of n is not modified.
func (bld *Builder) Color(n Node, c ms3.Vec) Node {
	bld.checkColor("Color", c)
	return bld.add(node{kind: KindColoring, children: []int32{bld.adopt(n, "Color")}, v: c})
}

// Checkers colors n with a 3D checkerboard pattern of unit cells centered at integer coordinates.
// A point is colored c1 when the sum of its rounded absolute coordinates is even and c2 otherwise.
// The distance of n is not modified.
func (bld *Builder) Checkers(n Node, c1, c2 ms3.Vec) Node {
	bld.checkColor("Checkers", c1)
	bld.checkColor("Checkers", c2)
	return bld.add(node{kind: KindCheckers, children: []int32{bld.adopt(n, "Checkers")}, v: c1, v2: c2})
}

func (bld *Builder) checkColor(op string, c ms3.Vec) {
	if !(c.X >= 0 && c.X <= 1 && c.Y >= 0 && c.Y <= 1 && c.Z >= 0 && c.Z <= 1) {
		bld.shapeErrorf("%s: color %v out of [0,1] range", op, c)
	}
}
