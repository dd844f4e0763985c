package marchaux

// cursor converts absolute cursor positions into motion since the last reported position.
type cursor struct {
	lastX, lastY float64
}

// moveTo records the cursor at (x,y) and returns the motion since the last position.
func (c *cursor) moveTo(x, y float64) (dx, dy float32) {
	dx, dy = float32(x-c.lastX), float32(y-c.lastY)
	c.lastX, c.lastY = x, y
	return dx, dy
}

// reset sets the last position without reporting motion, i.e: after warping the cursor.
func (c *cursor) reset(x, y float64) {
	c.lastX, c.lastY = x, y
}
