package lanes

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

func ramp(start, step float32) (f Float) {
	for i := range f {
		f[i] = start + float32(i)*step
	}
	return f
}

func TestArithmetic(t *testing.T) {
	a := Vec{X: ramp(1, 1), Y: ramp(-2, 0.5), Z: ramp(3, -1)}
	b := Vec{X: ramp(2, 0), Y: ramp(1, 1), Z: ramp(-1, 0.25)}
	aCopy := a
	sum := Add(a, b)
	diff := Sub(a, b)
	prod := MulElem(a, b)
	quot := DivElem(a, b)
	if a != aCopy {
		t.Fatal("operation mutated input")
	}
	for i := 0; i < Width; i++ {
		pa, pb := a.Lane(i), b.Lane(i)
		if got, want := sum.Lane(i), ms3.Add(pa, pb); got != want {
			t.Errorf("lane %d add: got %v want %v", i, got, want)
		}
		if got, want := diff.Lane(i), ms3.Sub(pa, pb); got != want {
			t.Errorf("lane %d sub: got %v want %v", i, got, want)
		}
		if got, want := prod.Lane(i), ms3.MulElem(pa, pb); got != want {
			t.Errorf("lane %d mul: got %v want %v", i, got, want)
		}
		if got, want := quot.Lane(i), ms3.DivElem(pa, pb); got != want {
			t.Errorf("lane %d div: got %v want %v", i, got, want)
		}
	}
}

func TestNorm(t *testing.T) {
	v := Broadcast(ms3.Vec{X: 3, Y: 4, Z: 12})
	n := Norm(v)
	for i, got := range n {
		if got != 13 {
			t.Errorf("lane %d: norm got %v want 13", i, got)
		}
	}
	u := Normalize(v)
	for i := 0; i < Width; i++ {
		l := ms3.Norm(u.Lane(i))
		if math32.Abs(l-1) > 1e-6 {
			t.Errorf("lane %d: normalized length %v", i, l)
		}
	}
}

func TestNormalizeZeroIsNaN(t *testing.T) {
	var v Vec
	v.SetLane(3, ms3.Vec{X: 1})
	u := Normalize(v)
	if !math32.IsNaN(u.X[0]) {
		t.Error("expected NaN for zero length lane, got", u.X[0])
	}
	if u.X[3] != 1 {
		t.Error("expected unit lane to be preserved, got", u.Lane(3))
	}
}

func TestMasks(t *testing.T) {
	a := ramp(0, 1)
	b := Splat(4)
	lt := a.Less(b)
	le := a.LessEq(b)
	if lt.Count() != 4 || le.Count() != 5 {
		t.Errorf("got counts lt=%d le=%d, want 4 and 5", lt.Count(), le.Count())
	}
	if !le.Has(4) || lt.Has(4) {
		t.Error("lane 4 boundary mismatch")
	}
	if lt.All() || !lt.Any() {
		t.Error("bad All/Any")
	}
	if !MaskAll.All() || Mask(0).Any() {
		t.Error("bad constant masks")
	}
	sel := SelectFloat(lt, a, b)
	for i, v := range sel {
		want := float32(4)
		if i < 4 {
			want = float32(i)
		}
		if v != want {
			t.Errorf("lane %d: select got %v want %v", i, v, want)
		}
	}
}

func TestMinMaxAbs(t *testing.T) {
	a := ramp(-8, 1)
	z := Splat(0)
	mn, mx, ab := a.Min(z), a.Max(z), a.Abs()
	for i := range a {
		if mn[i] > 0 || mx[i] < 0 || ab[i] < 0 {
			t.Errorf("lane %d: min=%v max=%v abs=%v", i, mn[i], mx[i], ab[i])
		}
		if ab[i] != math32.Abs(a[i]) {
			t.Errorf("lane %d abs mismatch", i)
		}
	}
	m := MaxElem(Vec{X: a}, Vec{})
	if m.X != mx {
		t.Error("MaxElem disagrees with Float.Max")
	}
}
