//go:build !tinygo && cgo

package marchaux

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/marcher"
	"github.com/soypat/marcher/camera"
	"github.com/soypat/marcher/frame"
	"github.com/soypat/marcher/glbuild"
)

// frameDrawer draws one frame of the scene as seen from cam on the bound quad.
type frameDrawer interface {
	// draw is called with the framebuffer size in pixels, which may differ from the window size.
	draw(cam camera.Camera, frameTime time.Duration, fbWidth, fbHeight int) error
}

func ui(ctx context.Context, scene *marcher.Scene, cfg Config) error {
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer term()

	var drawer frameDrawer
	var prog glgl.Program
	if cfg.UseGPU {
		var gpu *gpuDrawer
		gpu, prog, err = newGPUDrawer(scene, cfg)
		drawer = gpu
	} else {
		var cpu *cpuDrawer
		cpu, prog, err = newCPUDrawer(scene, cfg)
		drawer = cpu
	}
	if err != nil {
		return err
	}
	vao, err := bindQuad(prog)
	if err != nil {
		return err
	}

	ctl := camera.NewController(cfg.ControllerConfig())
	cam := cfg.StartCamera()
	cx, cy := float64(cfg.Width)/2, float64(cfg.Height)/2
	window.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
	var cur cursor
	window.SetCursorPos(cx, cy)
	cur.reset(cx, cy)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		ctl.MouseMotion(cur.moveTo(xpos, ypos))
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
			return
		}
		k, ok := keymap[key]
		if !ok || action == glfw.Repeat {
			return
		}
		ctl.Key(k, action == glfw.Press)
	})

	log("viewer started", cfg.Width, "x", cfg.Height, "gpu:", cfg.UseGPU)
	previousTime := glfw.GetTime()
	var frameTime time.Duration
	for !window.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		currentTime := glfw.GetTime()
		dt := time.Duration((currentTime - previousTime) * float64(time.Second))
		previousTime = currentTime

		cam = ctl.Apply(cam)
		cam = camera.Update(cam, dt)

		fbw, fbh := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(fbw), int32(fbh))
		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		prog.Bind()
		err = drawer.draw(cam, frameTime, fbw, fbh)
		if err != nil {
			return err
		}
		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		window.SwapBuffers()
		glfw.PollEvents()
		if ctl.TakeRecenter() {
			window.SetCursorPos(cx, cy)
			cur.reset(cx, cy)
		}
		frameTime = dt
	}
	return nil
}

var keymap = map[glfw.Key]camera.Key{
	glfw.KeyW:         camera.KeyForward,
	glfw.KeyS:         camera.KeyBackward,
	glfw.KeyA:         camera.KeyLeft,
	glfw.KeyD:         camera.KeyRight,
	glfw.KeySpace:     camera.KeyUp,
	glfw.KeyLeftShift: camera.KeyDown,
}

// cpuDrawer renders frames with [frame.Renderer] and uploads them as a texture.
type cpuDrawer struct {
	renderer *frame.Renderer
	hud      *HUD
	tex      uint32
	w, h     int32
}

const texVertexSrc = glbuild.VersionStr + `in vec2 aPos;
out vec2 vTexCoord;
void main() {
	vTexCoord = vec2(aPos.x*0.5 + 0.5, 0.5 - aPos.y*0.5);
	gl_Position = vec4(aPos, 0.0, 1.0);
}
` + "\x00"

const texFragmentSrc = glbuild.VersionStr + `in vec2 vTexCoord;
out vec4 fragColor;
uniform sampler2D uFrame;
void main() {
	fragColor = texture(uFrame, vTexCoord);
}
` + "\x00"

func newCPUDrawer(scene *marcher.Scene, cfg Config) (d *cpuDrawer, prog glgl.Program, err error) {
	renderer, err := frame.NewRenderer(scene, cfg.FrameConfig())
	if err != nil {
		return nil, prog, err
	}
	prog, err = glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   texVertexSrc,
		Fragment: texFragmentSrc,
	})
	if err != nil {
		return nil, prog, err
	}
	prog.Bind()
	frameUniform, err := prog.UniformLocation("uFrame\x00")
	if err != nil {
		return nil, prog, err
	}
	d = &cpuDrawer{renderer: renderer, w: int32(cfg.Width), h: int32(cfg.Height)}
	if cfg.HUD {
		d.hud, err = NewHUD(hudFontSize)
		if err != nil {
			return nil, prog, err
		}
	}
	gl.GenTextures(1, &d.tex)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, d.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, d.w, d.h, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.Uniform1i(frameUniform, 0)
	return d, prog, nil
}

func (d *cpuDrawer) draw(cam camera.Camera, frameTime time.Duration, _, _ int) error {
	pix, err := d.renderer.Render(cam)
	if err != nil {
		return err
	}
	if d.hud != nil {
		d.hud.Draw(d.renderer.Image(), StatsLines(cam, d.renderer.Stats(), frameTime)...)
	}
	gl.BindTexture(gl.TEXTURE_2D, d.tex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, d.w, d.h, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	return nil
}

// gpuDrawer marches rays in a fragment shader generated from the scene.
type gpuDrawer struct {
	resUniform      int32
	camPosUniform   int32
	yawPitchUniform int32
}

func newGPUDrawer(scene *marcher.Scene, cfg Config) (d *gpuDrawer, prog glgl.Program, err error) {
	fc := cfg.FrameConfig()
	programmer := glbuild.NewDefaultProgrammer()
	err = programmer.SetMarch(fc.March.MaxSteps, fc.March.Epsilon)
	if err != nil {
		return nil, prog, err
	}
	err = programmer.SetFOV(fc.FOV)
	if err != nil {
		return nil, prog, err
	}
	var vertSrc, fragSrc bytes.Buffer
	_, err = programmer.WriteVertexQuad(&vertSrc)
	if err != nil {
		return nil, prog, err
	}
	_, err = programmer.WriteFragMarcher(&fragSrc, scene)
	if err != nil {
		return nil, prog, err
	}
	prog, err = glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   vertSrc.String(),
		Fragment: fragSrc.String(),
	})
	if err != nil {
		return nil, prog, fmt.Errorf("%s\n\n%w", fragSrc.String(), err)
	}
	prog.Bind()
	d = &gpuDrawer{}
	for _, u := range []struct {
		name string
		dst  *int32
	}{
		{glbuild.UniformResolution, &d.resUniform},
		{glbuild.UniformCamPos, &d.camPosUniform},
		{glbuild.UniformYawPitch, &d.yawPitchUniform},
	} {
		*u.dst, err = prog.UniformLocation(u.name)
		if err != nil {
			return nil, prog, err
		}
	}
	return d, prog, nil
}

func (d *gpuDrawer) draw(cam camera.Camera, _ time.Duration, fbWidth, fbHeight int) error {
	p := cam.Position
	gl.Uniform2f(d.resUniform, float32(fbWidth), float32(fbHeight))
	gl.Uniform3f(d.camPosUniform, p.X, p.Y, p.Z)
	gl.Uniform2f(d.yawPitchUniform, cam.Yaw, cam.Pitch)
	return nil
}

// bindQuad uploads a quad covering the screen and binds it to prog's "aPos" attribute.
func bindQuad(prog glgl.Program) (vao uint32, err error) {
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	posAttrib, err := prog.AttribLocation("aPos\x00")
	if err != nil {
		return 0, err
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))
	return vao, nil
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, "marcher", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
