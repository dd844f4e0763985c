package camera

import (
	"github.com/soypat/geometry/ms3"
)

// Key is a movement key understood by [Controller].
type Key uint8

const (
	KeyForward  Key = iota // W
	KeyBackward            // S
	KeyLeft                // A
	KeyRight               // D
	KeyUp                  // Space
	KeyDown                // Shift
	numKeys
)

// ControllerConfig configures input sensitivity of a [Controller].
type ControllerConfig struct {
	// MouseSensitivity is radians of rotation per unit of mouse motion.
	MouseSensitivity float32
	// Speed is movement speed in units per second.
	Speed float32
}

// DefaultControllerConfig returns the sensitivities used by the interactive viewer.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{MouseSensitivity: 0.005, Speed: 0.7}
}

// Controller translates input events into camera state changes.
// It is not safe for concurrent use.
type Controller struct {
	cfg      ControllerConfig
	dyaw     float32
	dpitch   float32
	down     [numKeys]bool
	recenter bool
}

// NewController returns a Controller. Non-positive config fields are replaced by defaults.
func NewController(cfg ControllerConfig) *Controller {
	def := DefaultControllerConfig()
	if !(cfg.MouseSensitivity > 0) {
		cfg.MouseSensitivity = def.MouseSensitivity
	}
	if !(cfg.Speed > 0) {
		cfg.Speed = def.Speed
	}
	return &Controller{cfg: cfg}
}

// MouseMotion registers mouse motion relative to the last cursor re-center.
// Any motion requests a cursor re-center, see [Controller.TakeRecenter].
func (ctl *Controller) MouseMotion(dx, dy float32) {
	if dx == 0 && dy == 0 {
		return
	}
	ctl.dyaw += dx * ctl.cfg.MouseSensitivity
	ctl.dpitch += dy * ctl.cfg.MouseSensitivity
	ctl.recenter = true
}

// Key registers a key press (down=true) or release.
// Unknown keys are ignored.
func (ctl *Controller) Key(k Key, down bool) {
	if k < numKeys {
		ctl.down[k] = down
	}
}

// Apply applies pending rotation and the currently pressed keys' velocity to c.
// Pending rotation is consumed.
func (ctl *Controller) Apply(c Camera) Camera {
	c.Yaw += ctl.dyaw
	c.Pitch += ctl.dpitch
	ctl.dyaw, ctl.dpitch = 0, 0
	c = c.Clamp()
	c.Velocity = ctl.velocity()
	return c
}

func (ctl *Controller) velocity() (v ms3.Vec) {
	axis := func(pos, neg Key) float32 {
		return b2f(ctl.down[pos]) - b2f(ctl.down[neg])
	}
	v.X = axis(KeyRight, KeyLeft)
	v.Y = axis(KeyUp, KeyDown)
	v.Z = axis(KeyForward, KeyBackward)
	return ms3.Scale(ctl.cfg.Speed, v)
}

// TakeRecenter reports whether the cursor should be moved back to the window
// center and clears the request.
func (ctl *Controller) TakeRecenter() bool {
	r := ctl.recenter
	ctl.recenter = false
	return r
}

func b2f(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
