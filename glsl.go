package marcher

import (
	"strconv"

	"github.com/soypat/marcher/glbuild"
)

var _ glbuild.Scene = (*Scene)(nil)

// AppendSceneDecl appends GLSL functions that evaluate the scene's distance and color.
// Every node i declares `float sdf<i>(vec3 p)` and `vec3 col<i>(vec3 p)`,
// the root is exposed as `float sdf(vec3 p)` and `vec3 sdfColor(vec3 p)`.
func (s *Scene) AppendSceneDecl(b []byte) []byte {
	// Post-order storage guarantees children are declared before their parents.
	for i := range s.nodes {
		b = s.appendNodeDecl(b, int32(i))
	}
	b = append(b, "float sdf(vec3 p) { return "...)
	b = appendCall(b, "sdf", s.root, "p")
	b = append(b, "; }\nvec3 sdfColor(vec3 p) { return "...)
	b = appendCall(b, "col", s.root, "p")
	b = append(b, "; }\n"...)
	return b
}

func (s *Scene) appendNodeDecl(b []byte, idx int32) []byte {
	n := &s.nodes[idx]
	b = appendSignature(b, "float sdf", idx)
	switch n.kind {
	case KindSphere:
		b = append(b, "return length(p)-1.0;\n"...)
	case KindCube:
		b = append(b, "vec3 q=abs(p)-vec3(1.0);\nreturn length(max(q,0.0))+min(max(q.x,max(q.y,q.z)),0.0);\n"...)
	case KindPlane:
		b = append(b, "return abs(p.y-("...)
		b = glbuild.AppendFloat(b, '-', '.', n.f)
		b = append(b, "));\n"...)
	case KindUnion, KindIntersection:
		op := "min("
		if n.kind == KindIntersection {
			op = "max("
		}
		b = append(b, "float d="...)
		b = appendCall(b, "sdf", n.children[0], "p")
		b = append(b, ";\n"...)
		for _, c := range n.children[1:] {
			b = append(b, "d="...)
			b = append(b, op...)
			b = append(b, "d,"...)
			b = appendCall(b, "sdf", c, "p")
			b = append(b, ");\n"...)
		}
		b = append(b, "return d;\n"...)
	case KindTranslation, KindRotation, KindScale:
		b = n.appendToLocal(b)
		b = append(b, "return "...)
		b = appendCall(b, "sdf", n.children[0], "p")
		if n.kind == KindScale {
			b = append(b, '*')
			b = glbuild.AppendFloat(b, '-', '.', n.f)
		}
		b = append(b, ";\n"...)
	case KindCheckers, KindColoring:
		b = append(b, "return "...)
		b = appendCall(b, "sdf", n.children[0], "p")
		b = append(b, ";\n"...)
	default:
		panic("undefined node kind " + n.kind.String())
	}
	b = append(b, "}\n"...)

	b = appendSignature(b, "vec3 col", idx)
	switch n.kind {
	case KindSphere, KindCube, KindPlane:
		b = append(b, "return vec3(1.0);\n"...)
	case KindUnion:
		b = append(b, "float d="...)
		b = appendCall(b, "sdf", n.children[0], "p")
		b = append(b, ";\nvec3 c="...)
		b = appendCall(b, "col", n.children[0], "p")
		b = append(b, ";\nfloat dc;\n"...)
		for _, c := range n.children[1:] {
			b = append(b, "dc="...)
			b = appendCall(b, "sdf", c, "p")
			b = append(b, ";\nif (dc<d) { d=dc; c="...)
			b = appendCall(b, "col", c, "p")
			b = append(b, "; }\n"...)
		}
		b = append(b, "return c;\n"...)
	case KindTranslation, KindRotation, KindScale:
		b = n.appendToLocal(b)
		b = append(b, "return "...)
		b = appendCall(b, "col", n.children[0], "p")
		b = append(b, ";\n"...)
	case KindIntersection:
		b = append(b, "return "...)
		b = appendCall(b, "col", n.children[0], "p")
		b = append(b, ";\n"...)
	case KindColoring:
		b = append(b, "return "...)
		b = glbuild.AppendVec3(b, n.v)
		b = append(b, ";\n"...)
	case KindCheckers:
		b = append(b, "vec3 r=round(abs(p));\nreturn mod(r.x+r.y+r.z,2.0)<0.5 ? "...)
		b = glbuild.AppendVec3(b, n.v)
		b = append(b, " : "...)
		b = glbuild.AppendVec3(b, n.v2)
		b = append(b, ";\n"...)
	}
	b = append(b, "}\n"...)
	return b
}

// appendToLocal appends the statement that maps p into the child's space of a transform node.
func (n *node) appendToLocal(b []byte) []byte {
	switch n.kind {
	case KindTranslation:
		b = append(b, "p=p-"...)
		b = glbuild.AppendVec3(b, n.v)
	case KindScale:
		b = append(b, "p=p/"...)
		b = glbuild.AppendVec3(b, n.v)
	case KindRotation:
		if n.sin == 0 && n.cos == 1 {
			return b
		}
		b = glbuild.AppendFloatDecl(b, "s", n.sin)
		b = glbuild.AppendFloatDecl(b, "c", n.cos)
		switch n.axis {
		case AxisX:
			b = append(b, "p=vec3(p.x,c*p.y-s*p.z,s*p.y+c*p.z)"...)
		case AxisY:
			b = append(b, "p=vec3(c*p.x+s*p.z,p.y,-s*p.x+c*p.z)"...)
		case AxisZ:
			b = append(b, "p=vec3(c*p.x-s*p.y,s*p.x+c*p.y,p.z)"...)
		}
	}
	b = append(b, ";\n"...)
	return b
}

func appendSignature(b []byte, typeAndPrefix string, idx int32) []byte {
	b = append(b, typeAndPrefix...)
	b = strconv.AppendInt(b, int64(idx), 10)
	return append(b, "(vec3 p) {\n"...)
}

func appendCall(b []byte, prefix string, idx int32, arg string) []byte {
	b = append(b, prefix...)
	b = strconv.AppendInt(b, int64(idx), 10)
	b = append(b, '(')
	b = append(b, arg...)
	b = append(b, ')')
	return b
}
