// Package lanes implements fixed width struct-of-arrays float32 batches.
// All operations are applied lane-wise and return new values, inputs are never modified.
package lanes

import (
	"math/bits"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Width is the number of independent lanes in a batch.
const Width = 16

// Float is a batch of Width float32 values.
type Float [Width]float32

// Mask holds one boolean per lane. Bit i corresponds to lane i.
type Mask uint16

// MaskAll has every lane set.
const MaskAll Mask = 1<<Width - 1

// Vec is a batch of Width 3D vectors stored as three parallel lanes.
type Vec struct {
	X, Y, Z Float
}

// Splat replicates v across all lanes.
func Splat(v float32) (f Float) {
	for i := range f {
		f[i] = v
	}
	return f
}

// Broadcast replicates v across all lanes.
func Broadcast(v ms3.Vec) Vec {
	return Vec{X: Splat(v.X), Y: Splat(v.Y), Z: Splat(v.Z)}
}

// Lane returns the vector stored in lane i.
func (v *Vec) Lane(i int) ms3.Vec {
	return ms3.Vec{X: v.X[i], Y: v.Y[i], Z: v.Z[i]}
}

// SetLane stores p in lane i.
func (v *Vec) SetLane(i int, p ms3.Vec) {
	v.X[i] = p.X
	v.Y[i] = p.Y
	v.Z[i] = p.Z
}

// Add returns a+b.
func Add(a, b Vec) Vec {
	return Vec{X: a.X.Add(b.X), Y: a.Y.Add(b.Y), Z: a.Z.Add(b.Z)}
}

// Sub returns a-b.
func Sub(a, b Vec) Vec {
	return Vec{X: a.X.Sub(b.X), Y: a.Y.Sub(b.Y), Z: a.Z.Sub(b.Z)}
}

// MulElem returns the element-wise product of a and b.
func MulElem(a, b Vec) Vec {
	return Vec{X: a.X.Mul(b.X), Y: a.Y.Mul(b.Y), Z: a.Z.Mul(b.Z)}
}

// DivElem returns the element-wise quotient a/b.
func DivElem(a, b Vec) Vec {
	return Vec{X: a.X.Div(b.X), Y: a.Y.Div(b.Y), Z: a.Z.Div(b.Z)}
}

// Scale multiplies each lane's vector by the lane's factor in f.
func Scale(f Float, v Vec) Vec {
	return Vec{X: v.X.Mul(f), Y: v.Y.Mul(f), Z: v.Z.Mul(f)}
}

// AbsElem returns the absolute value of every component.
func AbsElem(v Vec) Vec {
	return Vec{X: v.X.Abs(), Y: v.Y.Abs(), Z: v.Z.Abs()}
}

// MaxElem returns the element-wise maximum of a and b.
func MaxElem(a, b Vec) Vec {
	return Vec{X: a.X.Max(b.X), Y: a.Y.Max(b.Y), Z: a.Z.Max(b.Z)}
}

// Norm returns the Euclidean length of every lane's vector.
func Norm(v Vec) (n Float) {
	for i := range n {
		n[i] = math32.Sqrt(v.X[i]*v.X[i] + v.Y[i]*v.Y[i] + v.Z[i]*v.Z[i])
	}
	return n
}

// Normalize scales every lane's vector to unit length.
// Zero length vectors result in NaN components.
func Normalize(v Vec) Vec {
	n := Norm(v)
	return Vec{X: v.X.Div(n), Y: v.Y.Div(n), Z: v.Z.Div(n)}
}

// Select returns a vector with lanes of a where m is set and lanes of b elsewhere.
func Select(m Mask, a, b Vec) Vec {
	return Vec{X: SelectFloat(m, a.X, b.X), Y: SelectFloat(m, a.Y, b.Y), Z: SelectFloat(m, a.Z, b.Z)}
}

// SelectFloat returns lanes of a where m is set and lanes of b elsewhere.
func SelectFloat(m Mask, a, b Float) Float {
	for i := range a {
		if m&(1<<i) == 0 {
			a[i] = b[i]
		}
	}
	return a
}

// Add returns a+b.
func (a Float) Add(b Float) Float {
	for i := range a {
		a[i] += b[i]
	}
	return a
}

// Sub returns a-b.
func (a Float) Sub(b Float) Float {
	for i := range a {
		a[i] -= b[i]
	}
	return a
}

// Mul returns a*b.
func (a Float) Mul(b Float) Float {
	for i := range a {
		a[i] *= b[i]
	}
	return a
}

// Div returns a/b.
func (a Float) Div(b Float) Float {
	for i := range a {
		a[i] /= b[i]
	}
	return a
}

// Min returns the lane-wise minimum of a and b.
func (a Float) Min(b Float) Float {
	for i := range a {
		a[i] = math32.Min(a[i], b[i])
	}
	return a
}

// Max returns the lane-wise maximum of a and b.
func (a Float) Max(b Float) Float {
	for i := range a {
		a[i] = math32.Max(a[i], b[i])
	}
	return a
}

// Abs returns the lane-wise absolute value of a.
func (a Float) Abs() Float {
	for i := range a {
		a[i] = math32.Abs(a[i])
	}
	return a
}

// Less returns a mask with lanes set where a < b.
func (a Float) Less(b Float) (m Mask) {
	for i := range a {
		if a[i] < b[i] {
			m |= 1 << i
		}
	}
	return m
}

// LessEq returns a mask with lanes set where a <= b.
func (a Float) LessEq(b Float) (m Mask) {
	for i := range a {
		if a[i] <= b[i] {
			m |= 1 << i
		}
	}
	return m
}

// Has reports whether lane i is set.
func (m Mask) Has(i int) bool { return m&(1<<i) != 0 }

// All reports whether every lane is set.
func (m Mask) All() bool { return m == MaskAll }

// Any reports whether at least one lane is set.
func (m Mask) Any() bool { return m != 0 }

// Count returns the number of lanes set.
func (m Mask) Count() int { return bits.OnesCount16(uint16(m)) }
