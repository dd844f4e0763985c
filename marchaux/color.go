package marchaux

import (
	"errors"
	"image/color"
	"strconv"
	"strings"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

var errColorFormat = errors.New("want hexadecimal color of form #rrggbb or #rgb")

// ParseColor parses a hexadecimal RGB color such as "#ff8000" or "#f80"
// into a vector with components in [0,1].
func ParseColor(s string) (ms3.Vec, error) {
	s = strings.TrimPrefix(s, "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return ms3.Vec{}, errColorFormat
	}
	c, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return ms3.Vec{}, errColorFormat
	}
	r, g, b := cToRGB(uint32(c))
	return ms3.Vec{X: r, Y: g, Z: b}, nil
}

// FormatColor formats a color with components in [0,1] as "#rrggbb".
// Components are clamped.
func FormatColor(c ms3.Vec) string {
	v := rgbToC(c.X, c.Y, c.Z)
	s := strconv.FormatUint(uint64(v), 16)
	return "#" + strings.Repeat("0", 6-len(s)) + s
}

// RGBA converts a color with components in [0,1] to an opaque color.RGBA.
func RGBA(c ms3.Vec) color.RGBA {
	v := rgbToC(c.X, c.Y, c.Z)
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// cToRGB converts a 24 bit RGB value stored in the least significant bits
func cToRGB(c uint32) (r, g, b float32) {
	r = float32(uint8(c>>16)) / math.MaxUint8
	g = float32(uint8(c>>8)) / math.MaxUint8
	b = float32(uint8(c)) / math.MaxUint8
	return r, g, b
}

// rgbToC converts r, g, and b values on the range of 0.0 to 1.0 to a
// 24 bit RGB value stored in the least significant bits of a uint32. The inputs
// are clamped to the range of 0.0 to 1.0
func rgbToC(r, g, b float32) (c uint32) {
	return uint32(ms1.Clamp(r, 0, 1)*math.MaxUint8)<<16 |
		uint32(ms1.Clamp(g, 0, 1)*math.MaxUint8)<<8 |
		uint32(ms1.Clamp(b, 0, 1)*math.MaxUint8)
}
