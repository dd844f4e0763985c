// Package marcher builds signed distance field scenes that are evaluated
// in batches of [lanes.Width] sample points for sphere tracing.
//
// Scenes are trees of nodes stored in a flat arena. Nodes are created with a [Builder]
// and frozen into an immutable [Scene] with [Builder.Build]. A built Scene is never
// modified afterwards and is safe for concurrent use by multiple goroutines.
package marcher

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Kind identifies the variant of a scene node.
type Kind uint8

const (
	kindUndefined Kind = iota
	KindSphere
	KindCube
	KindPlane
	KindUnion
	KindIntersection
	KindTranslation
	KindRotation
	KindScale
	KindCheckers
	KindColoring
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindCube:
		return "cube"
	case KindPlane:
		return "plane"
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	case KindTranslation:
		return "translation"
	case KindRotation:
		return "rotation"
	case KindScale:
		return "scale"
	case KindCheckers:
		return "checkers"
	case KindColoring:
		return "coloring"
	}
	return "undefined"
}

// Axis is a principal cartesian axis.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "invalid axis"
}

// Rotate rotates v counter-clockwise by radians around the axis (right hand rule).
// It uses the same formulas as Rotation node evaluation.
func (a Axis) Rotate(v ms3.Vec, radians float32) ms3.Vec {
	s, c := math32.Sincos(radians)
	switch a {
	case AxisX:
		return ms3.Vec{X: v.X, Y: c*v.Y - s*v.Z, Z: s*v.Y + c*v.Z}
	case AxisY:
		return ms3.Vec{X: c*v.X + s*v.Z, Y: v.Y, Z: -s*v.X + c*v.Z}
	case AxisZ:
		return ms3.Vec{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y, Z: v.Z}
	}
	return v
}

// Flags modify [Builder] behaviour.
type Flags uint64

const (
	// FlagNoDimensionPanic makes the Builder accumulate invalid argument errors instead of panicking.
	// Accumulated errors are returned by [Builder.Err] and [Builder.Build].
	FlagNoDimensionPanic Flags = 1 << iota
)

// Node is a handle to a node created by a [Builder]. The zero value is invalid.
type Node struct {
	bld *Builder
	idx int32
}

// Kind returns the variant of the node.
func (n Node) Kind() Kind {
	if n.bld == nil || int(n.idx) >= len(n.bld.nodes) {
		return kindUndefined
	}
	return n.bld.nodes[n.idx].kind
}

type node struct {
	kind     Kind
	children []int32
	// v is the translation offset, scale factors or the primary color depending on kind.
	v ms3.Vec
	// v2 is the secondary color of checkers.
	v2 ms3.Vec
	// f is the plane height, rotation angle or minimum scale factor.
	f        float32
	sin, cos float32 // Of the inverse rotation.
	axis     Axis
}

// Builder creates scene nodes and provides error handling strategies with panics or
// error accumulation during scene construction.
// Nodes are owned by exactly one parent: passing a node as child of two parents is an error.
type Builder struct {
	flags     Flags
	accumErrs []error
	nodes     []node
	owned     []bool
}

// SetFlags sets the Builder's flags, replacing any previous flags.
func (bld *Builder) SetFlags(flags Flags) {
	bld.flags = flags
}

// Flags returns the Builder's current flags.
func (bld *Builder) Flags() Flags {
	return bld.flags
}

// Err returns the accumulated errors of the Builder joined.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

// ClearErrors discards accumulated errors.
func (bld *Builder) ClearErrors() {
	bld.accumErrs = bld.accumErrs[:0]
}

// Reset discards all nodes and errors so the Builder can be reused. Flags are kept.
// Nodes created before the call must no longer be used.
func (bld *Builder) Reset() {
	bld.nodes = bld.nodes[:0]
	bld.owned = bld.owned[:0]
	bld.accumErrs = bld.accumErrs[:0]
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	if bld.flags&FlagNoDimensionPanic == 0 {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

func (*Builder) badnode(msg string) {
	panic("invalid node argument: " + msg)
}

func (bld *Builder) add(n node) Node {
	bld.nodes = append(bld.nodes, n)
	bld.owned = append(bld.owned, false)
	return Node{bld: bld, idx: int32(len(bld.nodes) - 1)}
}

func (bld *Builder) valid(n Node) bool {
	return n.bld == bld && n.idx >= 0 && int(n.idx) < len(bld.nodes)
}

// adopt marks n as owned by a new parent and returns its arena index.
func (bld *Builder) adopt(n Node, op string) int32 {
	if !bld.valid(n) {
		bld.badnode(op + ": node not created by this builder")
	}
	if bld.owned[n.idx] {
		bld.shapeErrorf("%s: %s node already has a parent", op, bld.nodes[n.idx].kind)
	}
	bld.owned[n.idx] = true
	return n.idx
}

// Import copies a built scene's nodes into the builder and returns the new root node.
// The scene is not modified.
func (bld *Builder) Import(s *Scene) Node {
	if s == nil || len(s.nodes) == 0 {
		bld.badnode("Import: nil or empty scene")
	}
	offset := int32(len(bld.nodes))
	for _, n := range s.nodes {
		n.children = append([]int32(nil), n.children...)
		for i := range n.children {
			n.children[i] += offset
		}
		bld.nodes = append(bld.nodes, n)
		bld.owned = append(bld.owned, true)
	}
	root := offset + s.root
	bld.owned[root] = false
	return Node{bld: bld, idx: root}
}

// Build freezes the tree rooted at root into an immutable [Scene].
// Nodes unreachable from root are not included. The Builder may keep being used
// after Build; the returned Scene shares no memory with it.
// The scene is returned along with any accumulated Builder errors.
func (bld *Builder) Build(root Node) (*Scene, error) {
	if !bld.valid(root) {
		bld.badnode("Build: root not created by this builder")
	}
	s := &Scene{nodes: make([]node, 0, len(bld.nodes))}
	s.root = s.copyTree(bld.nodes, root.idx)
	return s, bld.Err()
}

// Scene is an immutable signed distance field scene ready for evaluation.
// Nodes are stored in post-order: children always precede their parents.
type Scene struct {
	nodes []node
	root  int32
}

// NumNodes returns the amount of nodes in the scene.
func (s *Scene) NumNodes() int { return len(s.nodes) }

// RootKind returns the variant of the scene's root node.
func (s *Scene) RootKind() Kind { return s.nodes[s.root].kind }

func (s *Scene) copyTree(src []node, idx int32) int32 {
	n := src[idx]
	children := make([]int32, len(n.children))
	for i, c := range n.children {
		children[i] = s.copyTree(src, c)
	}
	n.children = children
	s.nodes = append(s.nodes, n)
	return int32(len(s.nodes) - 1)
}
