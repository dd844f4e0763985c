// Package glbuild generates OpenGL shader programs that sphere-trace a scene on the GPU.
package glbuild

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const VersionStr = "#version 430\n"

// Scene is a distance field scene that can declare itself in GLSL.
type Scene interface {
	// AppendSceneDecl appends the GLSL declarations of the scene to b and returns the result.
	// The declarations must define the following functions:
	//
	//	float sdf(vec3 p)      // Signed distance of the scene at p.
	//	vec3 sdfColor(vec3 p)  // Color of the scene at p in [0,1].
	AppendSceneDecl(b []byte) []byte
}

// Uniform names declared by the fragment shader of [Programmer.WriteFragMarcher].
// Names are null terminated for direct use with OpenGL bindings.
const (
	UniformResolution = "uResolution\x00" // vec2: width and height of the viewport in pixels.
	UniformCamPos     = "uCamPos\x00"     // vec3: camera position in world space.
	UniformYawPitch   = "uYawPitch\x00"   // vec2: camera yaw and pitch in radians.
)

// Programmer implements shader generation logic for a [Scene].
type Programmer struct {
	scratch  []byte
	maxSteps int
	epsilon  float32
	fov      float32
}

// NewDefaultProgrammer returns a Programmer with march parameters matching the CPU renderer defaults.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratch:  make([]byte, 0, 1024),
		maxSteps: 300,
		epsilon:  1e-2,
		fov:      45. / 360 * math32.Pi,
	}
}

// SetMarch sets the maximum amount of march steps and the surface hit threshold.
func (p *Programmer) SetMarch(maxSteps int, epsilon float32) error {
	if maxSteps < 1 {
		return errors.New("max steps must be positive")
	} else if !(epsilon > 0) {
		return errors.New("epsilon must be positive")
	}
	p.maxSteps = maxSteps
	p.epsilon = epsilon
	return nil
}

// SetFOV sets the horizontal field of view in radians.
func (p *Programmer) SetFOV(fov float32) error {
	if !(fov > 0 && fov < math32.Pi) {
		return fmt.Errorf("field of view %v out of range (0,pi)", fov)
	}
	p.fov = fov
	return nil
}

// WriteVertexQuad writes a vertex shader that passes through 2D clip-space positions
// of a full screen quad bound to attribute "aPos".
func (p *Programmer) WriteVertexQuad(w io.Writer) (int, error) {
	return io.WriteString(w, VersionStr+`
in vec2 aPos;
void main() {
	gl_Position = vec4(aPos, 0.0, 1.0);
}
`+"\x00")
}

// WriteFragMarcher writes a fragment shader that sphere-traces s for every pixel.
// Camera and viewport are set through the Uniform* named uniforms.
// The written source is null terminated.
func (p *Programmer) WriteFragMarcher(w io.Writer, s Scene) (n int, err error) {
	b := append(p.scratch[:0], VersionStr...)
	b = append(b, "\nuniform vec2 uResolution;\nuniform vec3 uCamPos;\nuniform vec2 uYawPitch;\nout vec4 fragColor;\n\n"...)
	b = AppendIntDecl(append(b, "const "...), "maxSteps", p.maxSteps)
	b = AppendFloatDecl(append(b, "const "...), "epsilon", p.epsilon)
	b = AppendFloatDecl(append(b, "const "...), "fov", p.fov)
	start := len(b)
	b = s.AppendSceneDecl(b)
	if !bytes.Contains(b[start:], []byte("float sdf(vec3 p)")) || !bytes.Contains(b[start:], []byte("vec3 sdfColor(vec3 p)")) {
		p.scratch = b
		return 0, errors.New("scene declaration missing sdf or sdfColor function")
	}
	b = append(b, fragMarcherMain...)
	b = append(b, 0)
	p.scratch = b
	return w.Write(b)
}

// fragMarcherMain marches a single ray per pixel. Row 0 of the CPU renderer is
// the top of the image, gl_FragCoord starts at the bottom so yr is not negated.
const fragMarcherMain = `
vec3 march(vec3 pos, vec3 dir) {
	float last = 0.0;
	for (int i = 0; i < maxSteps; i++) {
		float d = sdf(pos);
		if (d <= epsilon && d < last) {
			return sdfColor(pos) * (1.0 - clamp(d/last, 0.0, 1.0));
		}
		pos += dir * d;
		last = d;
	}
	float d = sdf(pos);
	float frac = d/last;
	if (isnan(frac)) {
		frac = 1.0;
	}
	return sdfColor(pos) * (1.0 - clamp(frac, 0.0, 1.0));
}

void main() {
	vec2 f = (gl_FragCoord.xy - 0.5) / (uResolution - 1.0) * 2.0 - 1.0;
	float xr = f.x * fov;
	float yr = f.y * fov * uResolution.y / uResolution.x;
	vec3 d = vec3(cos(yr)*sin(xr), sin(yr), cos(yr)*cos(xr));
	float cy = cos(uYawPitch.x), sy = sin(uYawPitch.x);
	float cp = cos(uYawPitch.y), sp = sin(uYawPitch.y);
	d = vec3(d.x, cp*d.y - sp*d.z, sp*d.y + cp*d.z);
	d = vec3(cy*d.x + sy*d.z, d.y, -sy*d.x + cy*d.z);
	fragColor = vec4(march(uCamPos, normalize(d)), 1.0);
}
`

// AppendVec3 appends a GLSL vec3 literal.
func AppendVec3(b []byte, v ms3.Vec) []byte {
	b = append(b, "vec3("...)
	arr := v.Array()
	b = AppendFloats(b, ',', '-', '.', arr[:]...)
	b = append(b, ')')
	return b
}

// AppendFloatDecl appends a float variable declaration initialized to v.
func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = AppendFloat(b, '-', '.', v)
	b = append(b, ';', '\n')
	return b
}

// AppendIntDecl appends an int variable declaration initialized to v.
func AppendIntDecl(b []byte, intVarname string, v int) []byte {
	b = append(b, "int "...)
	b = append(b, intVarname...)
	b = append(b, '=')
	b = strconv.AppendInt(b, int64(v), 10)
	b = append(b, ';', '\n')
	return b
}

const decimalDigits = 9

// AppendFloat appends v in decimal notation using neg as the negative sign
// and decimal as the decimal separator. Trailing zeros are trimmed.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start+1 && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}
