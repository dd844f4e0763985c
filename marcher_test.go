package marcher

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/marcher/lanes"
)

const tol = 1e-5

func TestPrimitivesExact(t *testing.T) {
	var bld Builder
	for _, test := range []struct {
		name string
		node Node
		p    ms3.Vec
		want float32
	}{
		{name: "sphere outside", node: bld.NewSphere(), p: ms3.Vec{X: 3}, want: 2},
		{name: "sphere inside", node: bld.NewSphere(), p: ms3.Vec{}, want: -1},
		{name: "sphere surface", node: bld.NewSphere(), p: ms3.Vec{Y: -1}, want: 0},
		{name: "sphere radius 2", node: bld.NewSphereAt(ms3.Vec{}, 2), p: ms3.Vec{Z: 5}, want: 3},
		{name: "cube face", node: bld.NewCube(), p: ms3.Vec{X: 3}, want: 2},
		{name: "cube corner", node: bld.NewCube(), p: ms3.Vec{X: 2, Y: 2, Z: 1}, want: math32.Sqrt2},
		{name: "cube inside", node: bld.NewCube(), p: ms3.Vec{X: 0.5}, want: -0.5},
		{name: "plane above", node: bld.NewPlane(-10), p: ms3.Vec{Y: 0}, want: 10},
		{name: "plane below", node: bld.NewPlane(10), p: ms3.Vec{Y: 12, X: 100}, want: 2},
		{name: "box", node: bld.NewBoxAt(ms3.Vec{X: 1, Y: -2, Z: 5}, ms3.Vec{X: .5, Y: .5, Z: .5}), p: ms3.Vec{X: 1, Y: -2, Z: 2}, want: 2.5},
	} {
		scene, err := bld.Build(test.node)
		if err != nil {
			t.Fatal(err)
		}
		got := evalOne(t, scene, test.p)
		if math32.Abs(got-test.want) > tol {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
}

func TestCombinators(t *testing.T) {
	var bld Builder
	a := bld.NewSphereAt(ms3.Vec{X: 1}, 1)
	b := bld.NewBoxAt(ms3.Vec{X: -1, Z: 0.5}, ms3.Vec{X: 1, Y: 0.5, Z: 2})
	sa := mustBuild(t, &bld, a)
	sb := mustBuild(t, &bld, b)
	union := mustBuild(t, &bld, bld.Union(bld.Import(sa), bld.Import(sb)))
	inter := mustBuild(t, &bld, bld.Intersection(bld.Import(sa), bld.Import(sb)))

	pos := randomPositions(64, 4)
	da := evalMany(t, sa, pos)
	db := evalMany(t, sb, pos)
	du := evalMany(t, union, pos)
	di := evalMany(t, inter, pos)
	for i := range pos {
		if du[i] != math32.Min(da[i], db[i]) {
			t.Errorf("union at %v: got %v, want min(%v,%v)", pos[i], du[i], da[i], db[i])
		}
		if di[i] != math32.Max(da[i], db[i]) {
			t.Errorf("intersection at %v: got %v, want max(%v,%v)", pos[i], di[i], da[i], db[i])
		}
	}
}

func TestTranslation(t *testing.T) {
	var bld Builder
	base := mustBuild(t, &bld, bld.Rotate(bld.NewBoxAt(ms3.Vec{}, ms3.Vec{X: 1, Y: 2, Z: .5}), AxisZ, 0.4))
	offset := ms3.Vec{X: -3, Y: 1.5, Z: 7}
	moved := mustBuild(t, &bld, bld.Translate(bld.Import(base), offset.X, offset.Y, offset.Z))
	pos := randomPositions(64, 10)
	shifted := make([]ms3.Vec, len(pos))
	for i := range pos {
		shifted[i] = ms3.Sub(pos[i], offset)
	}
	got := evalMany(t, moved, pos)
	want := evalMany(t, base, shifted)
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("translation at %v: got %v, want %v", pos[i], got[i], want[i])
		}
	}
}

func TestRotationZeroIdentity(t *testing.T) {
	var bld Builder
	child := bld.Checkers(bld.Union(bld.NewCube(), bld.NewSphereAt(ms3.Vec{X: 2}, 1)), ms3.Vec{X: 1}, ms3.Vec{Z: 1})
	base := mustBuild(t, &bld, child)
	for _, axis := range []Axis{AxisX, AxisY, AxisZ} {
		rotated := mustBuild(t, &bld, bld.Rotate(bld.Import(base), axis, 0))
		var p lanes.Vec
		fillBatch(&p, randomPositions(lanes.Width, 3))
		var d0, d1 lanes.Float
		var c0, c1 lanes.Vec
		base.DistanceEstimate(&d0, &p)
		rotated.DistanceEstimate(&d1, &p)
		base.Color(&c0, &p)
		rotated.Color(&c1, &p)
		if d0 != d1 {
			t.Errorf("axis %s: distance changed by zero rotation", axis)
		}
		if c0 != c1 {
			t.Errorf("axis %s: color changed by zero rotation", axis)
		}
	}
}

func TestRotationQuarterTurn(t *testing.T) {
	var bld Builder
	// Cube displaced along X rotated 90 degrees around Z ends up displaced along Y.
	cube := bld.Translate(bld.NewCube(), 3, 0, 0)
	scene := mustBuild(t, &bld, bld.Rotate(cube, AxisZ, math32.Pi/2))
	got := evalOne(t, scene, ms3.Vec{Y: 6})
	if math32.Abs(got-2) > tol {
		t.Errorf("got %v, want 2", got)
	}
	got = evalOne(t, scene, ms3.Vec{X: 3})
	if want := float32(2 * math32.Sqrt2); math32.Abs(got-want) > tol {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAxisRotateMatchesNode(t *testing.T) {
	var bld Builder
	// A unit sphere displaced along one axis lands where Axis.Rotate says.
	for _, axis := range []Axis{AxisX, AxisY, AxisZ} {
		center := ms3.Vec{X: 1, Y: 2, Z: 3}
		const angle = 0.7
		scene := mustBuild(t, &bld, bld.Rotate(bld.NewSphereAt(center, 1), axis, angle))
		got := evalOne(t, scene, axis.Rotate(center, angle))
		if math32.Abs(got+1) > tol {
			t.Errorf("axis %s: rotated center distance got %v, want -1", axis, got)
		}
	}
}

func TestUniformScaleSphere(t *testing.T) {
	var bld Builder
	const r, s = 1.5, 2.5
	scene := mustBuild(t, &bld, bld.Scale(bld.NewSphereAt(ms3.Vec{}, r), s, s, s))
	for _, p := range randomPositions(32, 20) {
		want := ms3.Norm(p) - r*s
		got := evalOne(t, scene, p)
		if math32.Abs(got-want) > 1e-4 {
			t.Errorf("at %v: got %v, want %v", p, got, want)
		}
	}
}

func TestNonUniformScaleNotOptimistic(t *testing.T) {
	var bld Builder
	scene := mustBuild(t, &bld, bld.Scale(bld.NewSphere(), 1, 3, 1))
	// True distance from (2,0,0) to the ellipsoid is 1.
	got := evalOne(t, scene, ms3.Vec{X: 2})
	if got > 1 {
		t.Errorf("estimate %v overshoots true distance 1", got)
	}
}

func TestCheckers(t *testing.T) {
	var bld Builder
	c1, c2 := ms3.Vec{X: 1, Y: 0.5}, ms3.Vec{Z: 1}
	scene := mustBuild(t, &bld, bld.Checkers(bld.NewPlane(0), c1, c2))
	pos := []ms3.Vec{{}, {X: 1}, {X: 1, Z: 1}, {X: -1}, {X: 0.4, Z: 0.4}, {X: 0.6, Z: -2.2}}
	want := []ms3.Vec{c1, c2, c1, c2, c1, c2}
	colors := make([]ms3.Vec, len(pos))
	err := scene.EvaluateColor(pos, colors)
	if err != nil {
		t.Fatal(err)
	}
	for i := range pos {
		if colors[i] != want[i] {
			t.Errorf("at %v: got color %v, want %v", pos[i], colors[i], want[i])
		}
	}
}

func TestUnionColor(t *testing.T) {
	var bld Builder
	red, green := ms3.Vec{X: 1}, ms3.Vec{Y: 1}
	left := bld.Color(bld.NewSphereAt(ms3.Vec{X: -2}, 1), red)
	right := bld.Color(bld.NewSphereAt(ms3.Vec{X: 2}, 1), green)
	scene := mustBuild(t, &bld, bld.Union(left, right, bld.NewPlane(-10)))
	pos := []ms3.Vec{{X: -2}, {X: 2}, {X: 0}, {X: 0, Y: -9.5}}
	// Origin is equidistant to both spheres: first child wins.
	want := []ms3.Vec{red, green, red, {X: 1, Y: 1, Z: 1}}
	colors := make([]ms3.Vec, len(pos))
	if err := scene.EvaluateColor(pos, colors); err != nil {
		t.Fatal(err)
	}
	for i := range pos {
		if colors[i] != want[i] {
			t.Errorf("at %v: got color %v, want %v", pos[i], colors[i], want[i])
		}
	}
}

func TestIntersectionColor(t *testing.T) {
	var bld Builder
	blue := ms3.Vec{Z: 1}
	scene := mustBuild(t, &bld, bld.Intersection(bld.Color(bld.NewCube(), blue), bld.Color(bld.NewSphere(), ms3.Vec{X: 1})))
	colors := make([]ms3.Vec, 1)
	if err := scene.EvaluateColor([]ms3.Vec{{X: 5}}, colors); err != nil {
		t.Fatal(err)
	}
	if colors[0] != blue {
		t.Errorf("got %v, want first child color %v", colors[0], blue)
	}
}

func TestSdfxReference(t *testing.T) {
	var bld Builder
	mySphere := mustBuild(t, &bld, bld.NewSphereAt(ms3.Vec{X: 1, Y: -1, Z: 2}, 1.5))
	// Non-uniform scaling does not yield an exact distance, so the box is a uniformly scaled cube.
	myBox := mustBuild(t, &bld, bld.Rotate(bld.NewBoxAt(ms3.Vec{X: 0.5}, ms3.Vec{X: .75, Y: .75, Z: .75}), AxisY, 0.5))

	refSphere, err := sdf.Sphere3D(1.5)
	if err != nil {
		t.Fatal(err)
	}
	refSphere = sdf.Transform3D(refSphere, sdf.Translate3d(v3.Vec{X: 1, Y: -1, Z: 2}))
	refBox, err := sdf.Box3D(v3.Vec{X: 1.5, Y: 1.5, Z: 1.5}, 0)
	if err != nil {
		t.Fatal(err)
	}
	refBox = sdf.Transform3D(refBox, sdf.RotateY(0.5).Mul(sdf.Translate3d(v3.Vec{X: 0.5})))

	pos := randomPositions(128, 6)
	gotSphere := evalMany(t, mySphere, pos)
	gotBox := evalMany(t, myBox, pos)
	for i, p := range pos {
		q := v3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
		if want := float32(refSphere.Evaluate(q)); math32.Abs(gotSphere[i]-want) > 1e-4 {
			t.Errorf("sphere at %v: got %v, sdfx %v", p, gotSphere[i], want)
		}
		if want := float32(refBox.Evaluate(q)); math32.Abs(gotBox[i]-want) > 1e-4 {
			t.Errorf("box at %v: got %v, sdfx %v", p, gotBox[i], want)
		}
	}
}

func TestEvaluateBuffers(t *testing.T) {
	var bld Builder
	scene := mustBuild(t, &bld, bld.NewSphere())
	if err := scene.Evaluate(nil, nil, nil); err != errEmptyBuffers {
		t.Errorf("want empty buffers error, got %v", err)
	}
	if err := scene.Evaluate(make([]ms3.Vec, 3), make([]float32, 2), nil); err != errMismatchBufferLength {
		t.Errorf("want mismatch error, got %v", err)
	}
	// Partial batches must be evaluated entirely.
	pos := randomPositions(lanes.Width*2+3, 5)
	dist := make([]float32, len(pos))
	if err := scene.Evaluate(pos, dist, nil); err != nil {
		t.Fatal(err)
	}
	for i, p := range pos {
		if math32.Abs(dist[i]-(ms3.Norm(p)-1)) > tol {
			t.Errorf("at %d: got %v, want %v", i, dist[i], ms3.Norm(p)-1)
		}
	}
}

func TestBuilderErrors(t *testing.T) {
	var bld Builder
	bld.SetFlags(FlagNoDimensionPanic)
	s := bld.NewSphere()
	bld.Scale(s, 0, 1, 1)
	bld.Color(bld.NewCube(), ms3.Vec{X: 2})
	bld.Translate(bld.NewCube(), math32.NaN(), 0, 0)
	bld.Union(s) // s already owned by the Scale.
	err := bld.Err()
	if err == nil {
		t.Fatal("expected accumulated errors")
	}
	for _, want := range []string{"scale", "color", "translation", "already has a parent"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
	bld.ClearErrors()
	if bld.Err() != nil {
		t.Error("errors not cleared")
	}

	var strict Builder
	assertPanic(t, "bad scale", func() { strict.Scale(strict.NewSphere(), -1, 1, 1) })
	assertPanic(t, "empty union", func() { strict.Union() })
	assertPanic(t, "foreign node", func() { strict.Translate(bld.NewSphere(), 1, 0, 0) })
	assertPanic(t, "zero node", func() { strict.Translate(Node{}, 1, 0, 0) })
}

func TestBuildImmutable(t *testing.T) {
	var bld Builder
	root := bld.Union(bld.NewSphere(), bld.NewPlane(-1))
	bld.NewCube() // Unreachable from root.
	scene := mustBuild(t, &bld, root)
	if scene.NumNodes() != 3 {
		t.Errorf("want 3 nodes, got %d", scene.NumNodes())
	}
	if scene.RootKind() != KindUnion {
		t.Errorf("want union root, got %s", scene.RootKind())
	}
	before := evalOne(t, scene, ms3.Vec{X: 3})

	// Wrapping an imported scene does not modify it.
	wrapped := mustBuild(t, &bld, bld.Translate(bld.Import(scene), 10, 0, 0))
	bld.Reset()
	after := evalOne(t, scene, ms3.Vec{X: 3})
	if before != after {
		t.Errorf("scene modified: %v != %v", before, after)
	}
	if wrapped.NumNodes() != 4 {
		t.Errorf("want 4 nodes in wrapped scene, got %d", wrapped.NumNodes())
	}
	// Imported roots can be adopted once.
	var other Builder
	other.SetFlags(FlagNoDimensionPanic)
	imp := other.Import(scene)
	other.Union(imp)
	other.Union(imp)
	if other.Err() == nil {
		t.Error("expected error adopting imported root twice")
	}
}

func TestAppendSceneDecl(t *testing.T) {
	var bld Builder
	scene := mustBuild(t, &bld, bld.Union(
		bld.Checkers(bld.NewPlane(-10), ms3.Vec{X: 1, Y: 1, Z: 1}, ms3.Vec{}),
		bld.Rotate(bld.NewSphereAt(ms3.Vec{Z: 3}, 1), AxisX, 0),
		bld.Intersection(bld.NewCube(), bld.Scale(bld.NewSphere(), 1.2, 1.2, 1.2)),
	))
	src := string(scene.AppendSceneDecl(nil))
	for _, want := range []string{"float sdf(vec3 p)", "vec3 sdfColor(vec3 p)", "abs(p.y-(-10.0))", "round(abs(p))", "max(d,"} {
		if !strings.Contains(src, want) {
			t.Errorf("declarations missing %q:\n%s", want, src)
		}
	}
	if strings.Contains(src, "float s=") {
		t.Error("zero rotation should not emit a rotation")
	}
	if strings.Count(src, "{") != strings.Count(src, "}") {
		t.Error("unbalanced braces")
	}
}

func evalOne(t *testing.T, s *Scene, p ms3.Vec) float32 {
	t.Helper()
	return evalMany(t, s, []ms3.Vec{p})[0]
}

func evalMany(t *testing.T, s *Scene, pos []ms3.Vec) []float32 {
	t.Helper()
	dist := make([]float32, len(pos))
	err := s.Evaluate(pos, dist, nil)
	if err != nil {
		t.Fatal(err)
	}
	return dist
}

func mustBuild(t *testing.T, bld *Builder, root Node) *Scene {
	t.Helper()
	s, err := bld.Build(root)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func randomPositions(n int, scale float32) []ms3.Vec {
	rng := rand.New(rand.NewSource(1))
	pos := make([]ms3.Vec, n)
	for i := range pos {
		pos[i] = ms3.Vec{
			X: (rng.Float32()*2 - 1) * scale,
			Y: (rng.Float32()*2 - 1) * scale,
			Z: (rng.Float32()*2 - 1) * scale,
		}
	}
	return pos
}

func assertPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}
