// Package camera implements a first person fly camera and its input handling.
package camera

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/marcher"
)

// Camera is the state of a first person camera. The zero value looks down +Z from the origin.
type Camera struct {
	Position ms3.Vec
	// Yaw is the rotation around the world Y axis in radians.
	Yaw float32
	// Pitch is the rotation around the camera's X axis in radians. Positive looks down.
	Pitch float32
	// Velocity is in camera-local coordinates, units per second.
	Velocity ms3.Vec
}

// ToWorld rotates a camera-local direction into world coordinates.
func (c Camera) ToWorld(v ms3.Vec) ms3.Vec {
	v = marcher.AxisX.Rotate(v, c.Pitch)
	return marcher.AxisY.Rotate(v, c.Yaw)
}

// Forward returns the world direction the camera looks towards.
func (c Camera) Forward() ms3.Vec {
	return c.ToWorld(ms3.Vec{Z: 1})
}

// Update advances the camera position by its velocity rotated into world space over dt.
func Update(c Camera, dt time.Duration) Camera {
	if c.Velocity == (ms3.Vec{}) || dt <= 0 {
		return c
	}
	v := c.ToWorld(c.Velocity)
	c.Position = ms3.Add(c.Position, ms3.Scale(float32(dt.Seconds()), v))
	return c
}

// Wrap stacks the camera transform on top of root so that evaluating the result at
// camera-local point p evaluates root at Position + ToWorld(p).
func Wrap(bld *marcher.Builder, root marcher.Node, c Camera) marcher.Node {
	n := bld.Translate(root, -c.Position.X, -c.Position.Y, -c.Position.Z)
	n = bld.Rotate(n, marcher.AxisY, -c.Yaw)
	return bld.Rotate(n, marcher.AxisX, -c.Pitch)
}

// View returns a new scene that is base seen from the camera. base is not modified.
func View(base *marcher.Scene, c Camera) (*marcher.Scene, error) {
	var bld marcher.Builder
	bld.SetFlags(marcher.FlagNoDimensionPanic)
	return bld.Build(Wrap(&bld, bld.Import(base), c))
}

// Clamp limits the pitch to look at most straight up or down.
func (c Camera) Clamp() Camera {
	c.Pitch = math32.Max(-math32.Pi/2, math32.Min(math32.Pi/2, c.Pitch))
	return c
}
