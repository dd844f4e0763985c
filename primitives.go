package marcher

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// NewSphere creates a sphere of radius 1 centered at the origin.
// Use [Builder.Scale] and [Builder.Translate] to size and place it.
func (bld *Builder) NewSphere() Node {
	return bld.add(node{kind: KindSphere})
}

// NewCube creates an axis aligned cube centered at the origin spanning [-1,1] in every axis.
// Scaling the cube by (sx,sy,sz) yields a box with half-extents (sx,sy,sz).
func (bld *Builder) NewCube() Node {
	return bld.add(node{kind: KindCube})
}

// NewPlane creates an infinite horizontal plane at y=height.
// The plane's distance is unsigned: both sides are considered outside.
func (bld *Builder) NewPlane(height float32) Node {
	if math32.IsNaN(height) || math32.IsInf(height, 0) {
		bld.shapeErrorf("non-finite plane height %v", height)
	}
	return bld.add(node{kind: KindPlane, f: height})
}

// NewSphereAt is shorthand for a sphere of radius r translated to center.
func (bld *Builder) NewSphereAt(center ms3.Vec, r float32) Node {
	s := bld.Scale(bld.NewSphere(), r, r, r)
	return bld.Translate(s, center.X, center.Y, center.Z)
}

// NewBoxAt is shorthand for a box of given half-extents translated to center.
func (bld *Builder) NewBoxAt(center, halfExtents ms3.Vec) Node {
	b := bld.Scale(bld.NewCube(), halfExtents.X, halfExtents.Y, halfExtents.Z)
	return bld.Translate(b, center.X, center.Y, center.Z)
}
